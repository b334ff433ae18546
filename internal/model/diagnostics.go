package model

import (
	"github.com/wildstyl3r/apcycle/internal/storage"
)

// StepRecord summarizes the last outer step.
func (m *Model) StepRecord() storage.StepRecord {
	return storage.StepRecord{
		Step:               m.step,
		SubSteps:           append([]uint32(nil), m.Registry.SubSteps...),
		Accepted:           int(m.stats.accepted.Load()),
		Rejected:           int(m.stats.rejected.Load()),
		OverSubscribedBins: int(m.stats.overSubscribed.Load()),
		IPDIonizations:     int(m.stats.ipdIonizations.Load()),
		Electrons:          m.Electrons.Count(),
	}
}

// ChargeStates returns the ion weight per charge state of every species.
func (m *Model) ChargeStates() []storage.ChargeStateRecord {
	records := make([]storage.ChargeStateRecord, 0, len(m.Species))
	for _, s := range m.Species {
		record := storage.ChargeStateRecord{
			Step:    m.step,
			Species: s.Name,
			Weights: make([]float64, int(s.Data.NuclearCharge)+1),
		}
		var total float64
		for _, ions := range s.Ions.SuperCells {
			for i := range ions {
				charge := s.Data.States[ions[i].State].Charge
				record.Weights[charge] += ions[i].Weight
				record.MeanCharge += float64(charge) * ions[i].Weight
				total += ions[i].Weight
			}
		}
		if total > 0 {
			record.MeanCharge /= total
		}
		records = append(records, record)
	}
	return records
}

// StatePopulations returns the ion weight per atomic state of species s.
func (s *Species) StatePopulations() []float64 {
	populations := make([]float64, s.Data.NumberStates())
	for _, ions := range s.Ions.SuperCells {
		for i := range ions {
			populations[ions[i].State] += ions[i].Weight
		}
	}
	return populations
}
