// Package storage persists the per-step diagnostics of a run.
package storage

import (
	"context"

	"github.com/google/uuid"
)

// StepRecord summarizes one outer step over all local supercells.
type StepRecord struct {
	Step               uint32
	SubSteps           []uint32 // per supercell
	Accepted           int
	Rejected           int
	OverSubscribedBins int
	IPDIonizations     int
	Electrons          int
}

// ChargeStateRecord is the weight distribution of one species over charge states.
type ChargeStateRecord struct {
	Step       uint32
	Species    string
	MeanCharge float64
	Weights    []float64 // by charge state
}

type Run struct {
	ID     string
	Config string
	Seed   uint64
}

func NewRunID() string {
	return uuid.NewString()
}

type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	SaveStep(ctx context.Context, runID string, record StepRecord) error
	GetSteps(ctx context.Context, runID string) ([]StepRecord, bool, error)
	SaveChargeStates(ctx context.Context, runID string, record ChargeStateRecord) error
	GetChargeStates(ctx context.Context, runID, species string) ([]ChargeStateRecord, bool, error)
}
