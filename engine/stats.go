package engine

// Stats accumulates per-attempt outcome counts across any number of
// MHStep calls. A nil *Stats is always safe to pass; MHStep/ModelStep
// check before incrementing.
type Stats struct {
	Attempts            uint64
	IdentityRejects      uint64
	ConnectivityRejects  uint64
	EnergyRejects        uint64
	Commits              uint64
}

func (s *Stats) recordAttempt() {
	if s != nil {
		s.Attempts++
	}
}

func (s *Stats) recordIdentityReject() {
	if s != nil {
		s.IdentityRejects++
	}
}

func (s *Stats) recordConnectivityReject() {
	if s != nil {
		s.ConnectivityRejects++
	}
}

func (s *Stats) recordEnergyReject() {
	if s != nil {
		s.EnergyRejects++
	}
}

func (s *Stats) recordCommit() {
	if s != nil {
		s.Commits++
	}
}
