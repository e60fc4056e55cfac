package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/anvil-platform/delegatehoist/api/v1alpha1"
	"github.com/anvil-platform/delegatehoist/internal/semver"
)

// ErrInvalidOptions wraps every validation failure returned by Validate.
var ErrInvalidOptions = errors.New("invalid delegate hoist options")

var optionsValidate *validator.Validate

func init() {
	optionsValidate = validator.New()
	optionsValidate.RegisterTagNameFunc(jsonFieldName)

	mustRegister(optionsValidate, "semverconstraint", func(fl validator.FieldLevel) bool {
		return semver.IsConstraint(fl.Field().String())
	})
	mustRegister(optionsValidate, "semverversion", func(fl validator.FieldLevel) bool {
		return semver.IsVersion(fl.Field().String())
	})
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Validate checks struct tags and cross-field rules. The returned error
// wraps ErrInvalidOptions and a field error aggregate.
func Validate(opts v1alpha1.DelegateHoistOptions) error {
	errs := tagErrors(opts)
	errs = append(errs, crossFieldErrors(opts)...)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidOptions, errs.ToAggregate())
}

func tagErrors(opts v1alpha1.DelegateHoistOptions) field.ErrorList {
	err := optionsValidate.Struct(opts)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return field.ErrorList{field.InternalError(field.NewPath("options"), err)}
	}

	var errs field.ErrorList
	for _, fe := range verrs {
		path := field.NewPath(fieldPath(fe.Namespace()))
		switch fe.Tag() {
		case "required":
			errs = append(errs, field.Required(path, ""))
		case "oneof":
			errs = append(errs, field.NotSupported(path, fe.Value(), strings.Fields(fe.Param())))
		case "semverconstraint":
			errs = append(errs, field.Invalid(path, fe.Value(), "must be a semver range"))
		case "semverversion":
			errs = append(errs, field.Invalid(path, fe.Value(), "must be a semver version"))
		default:
			errs = append(errs, field.Invalid(path, fe.Value(), fmt.Sprintf("failed %q validation", fe.Tag())))
		}
	}
	return errs
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

func crossFieldErrors(opts v1alpha1.DelegateHoistOptions) field.ErrorList {
	var errs field.ErrorList

	if opts.APIVersion != "" && opts.APIVersion != v1alpha1.GroupVersion.String() {
		errs = append(errs, field.NotSupported(field.NewPath("apiVersion"), opts.APIVersion, []string{v1alpha1.GroupVersion.String()}))
	}
	if opts.Kind != "" && opts.Kind != v1alpha1.DelegateHoistOptionsKind {
		errs = append(errs, field.NotSupported(field.NewPath("kind"), opts.Kind, []string{v1alpha1.DelegateHoistOptionsKind}))
	}
	if opts.Container != "" && opts.Container == opts.Runtime {
		errs = append(errs, field.Invalid(field.NewPath("container"), opts.Container, "must differ from runtime"))
	}

	remotes := field.NewPath("remotes")
	for _, name := range sets.List(sets.KeySet(opts.Remotes)) {
		value := opts.Remotes[name]
		if value != "" && strings.TrimSpace(strings.TrimPrefix(value, v1alpha1.InternalRequestPrefix)) == "" {
			errs = append(errs, field.Invalid(remotes.Key(name), value, "request is empty after the internal prefix"))
		}
	}
	return errs
}

// Warnings lists option combinations that are valid but probably unintended.
func Warnings(opts v1alpha1.DelegateHoistOptions) []string {
	var out []string

	if opts.Eager && opts.ApplicationName == "" {
		out = append(out, "eager has no effect without applicationName")
	}

	if opts.DelegateRequestMode == v1alpha1.DelegateRequestModeQuery {
		for _, name := range sets.List(sets.KeySet(opts.Remotes)) {
			if !strings.Contains(opts.Remotes[name], "?") {
				out = append(out, fmt.Sprintf("remotes[%s]: no query segment, ignored in query mode", name))
			}
		}
	}

	for _, name := range sets.List(sets.KeySet(opts.Shared)) {
		cfg := opts.Shared[name]
		if cfg.Version == "" || cfg.RequiredVersion == "" {
			continue
		}
		v, err := semver.ParseVersion(cfg.Version)
		if err != nil {
			continue
		}
		c, err := semver.ParseConstraint(cfg.RequiredVersion)
		if err != nil {
			continue
		}
		if !semver.Satisfies(v, c) {
			out = append(out, fmt.Sprintf("shared[%s]: version %s does not satisfy requiredVersion %s", name, cfg.Version, cfg.RequiredVersion))
		}
	}
	return out
}
