package httpapi

import "github.com/go-playground/validator/v10"

// AllocateInput is the validated shape of an allocate request, built from
// the bound wire.AllocateRequest and checked by an explicit
// go-playground/validator pass (teacher idiom: app/http/requests/*.go runs
// its own Rules() pass after JSON binding). gin's ShouldBindJSON already
// applies the same gte=0 rule through the binding tag on
// wire.AllocateRequest, so a negative size is rejected at bind time and
// this pass repeats that check.
type AllocateInput struct {
	SizeBytes int64 `json:"size_bytes" validate:"gte=0"`
}

var validate = validator.New()

func validateAllocateInput(in AllocateInput) error {
	return validate.Struct(in)
}
