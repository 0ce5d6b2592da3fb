// Package payroll computes statutory social-security contributions, income
// tax withholding and net pay, and checks the results against regulatory
// ceilings. All calculations are pure functions of their inputs and the
// fiscal-year configuration the Engine was built with.
package payroll

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/csg33k/tss-payroll/internal/logging"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

var (
	// ErrNoBracket means the income-tax scale has a hole. It is a
	// configuration defect, never an input problem.
	ErrNoBracket = errors.New("no income tax bracket matches")

	ErrLineNotPending  = errors.New("payroll line is not pending")
	ErrLineNotComputed = errors.New("payroll line has not been computed")
)

// Engine holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg *taxconfig.Configuration
	log logrus.FieldLogger
}

func NewEngine(cfg *taxconfig.Configuration, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{cfg: cfg, log: log}
}

func (e *Engine) Config() *taxconfig.Configuration { return e.cfg }

// Option tunes a single calculation.
type Option func(*options)

type options struct {
	riskFactor *decimal.Decimal
}

// WithRiskFactor sets the employer's variable work-risk factor, replacing
// the configured default.
func WithRiskFactor(f decimal.Decimal) Option {
	return func(o *options) { o.riskFactor = &f }
}

func collect(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
