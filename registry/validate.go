package registry

import (
	"github.com/launchdarkly/message-contract-tests/message"
	"github.com/launchdarkly/message-contract-tests/validation"
)

// Result is the outcome of one validator run by Validate.
type Result struct {
	Validator string
	Outcome   validation.Outcome
	Err       error
}

// Validate runs the schema validators and then the message validators that apply to a message
// of the declared kind. It stops at the first failure, which is returned along with the
// results collected so far.
func (r *Registry) Validate(
	kind message.Kind,
	received, control *message.Message,
	contexts []validation.Context,
	tc *validation.TestContext,
	mustFind bool,
) ([]Result, error) {
	messageValidators, err := r.FindMessageValidators(kind, received, mustFind)
	if err != nil {
		return nil, err
	}
	validators := append(r.FindSchemaValidators(kind, received), messageValidators...)

	results := make([]Result, 0, len(validators))
	for _, v := range validators {
		outcome, err := v.Validate(received, control, contexts, tc)
		results = append(results, Result{Validator: validatorName(v), Outcome: outcome, Err: err})
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

type named interface {
	ValidatorName() string
}

func validatorName(v validation.MessageValidator) string {
	if n, ok := v.(named); ok {
		return n.ValidatorName()
	}
	return "custom"
}
