package contract

// PositionSpec declares one position and its candidate names at
// deployment. Names are free-form strings matched exactly, including
// case and whitespace, for the life of the contract.
type PositionSpec struct {
	Name       string   `json:"name" mapstructure:"name" validate:"required"`
	Candidates []string `json:"candidates" mapstructure:"candidates" validate:"required,min=1,dive,required"`
}

// VotePair is one vote for a candidate in a position.
type VotePair struct {
	Position  string `json:"position" mapstructure:"position" validate:"required"`
	Candidate string `json:"candidate" mapstructure:"candidate" validate:"required"`
}

// VoteCastEvent is emitted once per accepted castVotes call and
// carries the full batch.
type VoteCastEvent struct {
	Submitter string     `json:"submitter"`
	Votes     []VotePair `json:"votes"`
}
