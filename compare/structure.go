package compare

import (
	"errors"
	"fmt"

	"github.com/launchdarkly/message-contract-tests/document"
	"github.com/launchdarkly/message-contract-tests/matcher"
)

// Comparator walks a received document and a control document side by side.
//
// In strict mode, any received element that the control document does not declare is a
// failure. In lenient mode such elements are ignored, and only the elements the control
// document declares must be satisfied.
type Comparator struct {
	Strict  bool
	Options Options
}

// Compare compares two documents and returns the root of the resulting comparison tree. Content
// differences are recorded on the tree (see ElementPathItem.Failures); the returned error is
// only for configuration problems, such as an unknown matcher function in the control document.
func (c Comparator) Compare(received, control *document.Node) (*ElementPathItem, error) {
	root := NewRoot(received, control)
	if err := c.compare(root); err != nil {
		return root, err
	}
	return root, nil
}

func (c Comparator) compare(item *ElementPathItem) error {
	path := item.JSONPath()
	switch {
	case !item.HasControl:
		if c.Strict {
			item.fail(&Mismatch{Kind: MismatchUnexpected, Path: path, Actual: item.Received})
		} else {
			item.Outcome = OutcomeIgnored
		}
		return nil
	case !item.HasReceived:
		item.fail(&Mismatch{Kind: MismatchMissing, Path: path, Expected: item.Control})
		return nil
	}

	recv, ctrl := item.Received, item.Control
	if ctrl.Type() == document.String && matcher.IsDirective(ctrl.Text()) {
		return c.compareValue(item, path, ctrl.Text())
	}

	if ctrl.IsContainer() || recv.IsContainer() {
		if ctrl.Type() != recv.Type() {
			item.fail(&Mismatch{Kind: MismatchType, Path: path, Expected: ctrl, Actual: recv,
				Reason: fmt.Sprintf("expected %s but was %s", ctrl.Type(), recv.Type())})
			return nil
		}
		var err error
		if ctrl.Type() == document.Object {
			err = c.compareObjects(item)
		} else {
			err = c.compareArrays(item)
		}
		if err != nil {
			return err
		}
		item.Outcome = OutcomePassed
		for _, child := range item.children {
			if child.Outcome == OutcomeFailed {
				item.Outcome = OutcomeFailed
				break
			}
		}
		return nil
	}

	return c.compareValue(item, path, controlValue(ctrl))
}

func (c Comparator) compareValue(item *ElementPathItem, path string, expected interface{}) error {
	err := Values(path, item.Received, expected, c.Options)
	var mm *Mismatch
	switch {
	case err == nil:
		item.Outcome = OutcomePassed
	case errors.As(err, &mm):
		item.fail(mm)
	default:
		return err
	}
	return nil
}

func (c Comparator) compareObjects(item *ElementPathItem) error {
	recv, ctrl := item.Received, item.Control
	for _, f := range ctrl.Fields() {
		rv, ok := recv.Field(f.Name)
		child := item.Child(f.Name).withControl(f.Value, true).withReceived(rv, ok)
		if err := c.compare(child); err != nil {
			return err
		}
	}
	for _, f := range recv.Fields() {
		if _, declared := ctrl.Field(f.Name); declared {
			continue
		}
		child := item.Child(f.Name).withReceived(f.Value, true)
		if err := c.compare(child); err != nil {
			return err
		}
	}
	return nil
}

func (c Comparator) compareArrays(item *ElementPathItem) error {
	recvItems, ctrlItems := item.Received.Items(), item.Control.Items()
	for i, ctrl := range ctrlItems {
		child := item.Element(i).withControl(ctrl, true)
		if i < len(recvItems) {
			child.withReceived(recvItems[i], true)
		}
		if err := c.compare(child); err != nil {
			return err
		}
	}
	for i := len(ctrlItems); i < len(recvItems); i++ {
		child := item.Element(i).withReceived(recvItems[i], true)
		if err := c.compare(child); err != nil {
			return err
		}
	}
	return nil
}

// controlValue converts a scalar control node to the expected value used by Values.
func controlValue(n *document.Node) interface{} {
	switch n.Type() {
	case document.Null:
		return nil
	case document.Bool, document.Number:
		return n
	}
	return n.Text()
}
