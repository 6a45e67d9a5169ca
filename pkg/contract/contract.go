package contract

import (
	"strings"
	"time"

	"github.com/aretw0/arbiter/pkg/domain"
)

// Operation is one method a participant exposes.
type Operation struct {
	// Method is the declared method name.
	Method string
	// Alias, when set, replaces Method on the wire.
	Alias  string
	Params []Type
	Result Type
	// Default is the bound used when the run configuration says nothing about
	// this operation. Nil means fire-and-forget.
	Default *time.Duration
}

// Op declares an operation. A nil result means Void.
func Op(method string, result Type, params ...Type) *Operation {
	if result == nil {
		result = Void
	}
	return &Operation{Method: method, Params: params, Result: result}
}

// As overrides the wire name.
func (o *Operation) As(alias string) *Operation {
	o.Alias = alias
	return o
}

// Within declares a default bound for calls to this operation.
func (o *Operation) Within(d time.Duration) *Operation {
	o.Default = &d
	return o
}

// Name is the stable wire name: the alias if set, the method otherwise.
func (o *Operation) Name() string {
	if o.Alias != "" {
		return o.Alias
	}
	return o.Method
}

func (o *Operation) String() string {
	params := make([]string, len(o.Params))
	for i, p := range o.Params {
		params[i] = p.Name()
	}
	return o.Name() + "(" + strings.Join(params, ", ") + ") " + o.Result.Name()
}

// Contract is the description of a participant interface.
type Contract struct {
	Name       string
	Operations []*Operation
}

// New declares a contract. Use Index to validate it.
func New(name string, ops ...*Operation) Contract {
	return Contract{Name: name, Operations: ops}
}

// Index maps every wire name to its operation. Two operations sharing a wire
// name, or an operation without a name, is a configuration error.
func (c Contract) Index() (map[string]*Operation, error) {
	index := make(map[string]*Operation, len(c.Operations))
	for _, op := range c.Operations {
		if op == nil {
			return nil, domain.Configurationf("contract %s: nil operation", c.Name)
		}
		name := op.Name()
		if name == "" {
			return nil, domain.Configurationf("contract %s: operation without a name", c.Name)
		}
		if prev, dup := index[name]; dup {
			return nil, domain.Configurationf("contract %s: operations %s and %s share the wire name %q",
				c.Name, prev.Method, op.Method, name)
		}
		index[name] = op
	}
	return index, nil
}

// MustIndex is Index for contracts declared at package level.
func (c Contract) MustIndex() map[string]*Operation {
	index, err := c.Index()
	if err != nil {
		panic(err)
	}
	return index
}
