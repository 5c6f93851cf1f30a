package env

import (
	"sync"

	"github.com/artverse/ingest/service/logger"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var validators = map[string][]string{}

var v = validator.New()

var validatorsMu = &sync.Mutex{}

// RegisterValidation adds validator tags that are checked every time the
// named variable is read. Typically called from a package init.
func RegisterValidation(name string, tags ...string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	validators[name] = dedupe(append(validators[name], tags...))
}

func Get[T any](name string) T {
	checkValidations(name)

	if !viper.IsSet(name) {
		return *new(T)
	}

	it, ok := viper.Get(name).(T)
	if !ok {
		logger.For(nil).Errorf("invalid env var: %s, expected type: %T", name, it)
		return *new(T)
	}

	return it
}

func GetString(name string) string {
	checkValidations(name)
	return viper.GetString(name)
}

func GetInt(name string) int {
	checkValidations(name)
	return viper.GetInt(name)
}

func GetBool(name string) bool {
	checkValidations(name)
	return viper.GetBool(name)
}

func GetFloat64(name string) float64 {
	checkValidations(name)
	return viper.GetFloat64(name)
}

func checkValidations(name string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	for _, tag := range validators[name] {
		if err := v.Var(viper.GetString(name), tag); err != nil {
			logger.For(nil).Fatalf("invalid env var: %s, tag: %s, err: %s", name, tag, err.Error())
		}
	}
}

func dedupe(src []string) []string {
	result := src[:0]

	seen := make(map[string]bool)
	for _, x := range src {
		if !seen[x] {
			result = append(result, x)
			seen[x] = true
		}
	}
	return result
}
