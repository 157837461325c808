package recurring

// Frequency is a recurrence class.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	BiWeekly  Frequency = "bi-weekly"
	Monthly   Frequency = "monthly"
	BiMonthly Frequency = "bi-monthly"
	Quarterly Frequency = "quarterly"
)

// Band is an inclusive day-interval range mapped to a frequency.
type Band struct {
	Frequency Frequency `yaml:"frequency" json:"frequency"`
	MinDays   float64   `yaml:"min_days" json:"min_days"`
	MaxDays   float64   `yaml:"max_days" json:"max_days"`
}

// Config holds the empirically tuned analyzer constants.
type Config struct {
	// A merchant group is considered for splitting when it has at least
	// MinSplitEntries entries and max-min exceeds
	// max(min*SplitSpreadRatio, SplitSpreadFloor).
	MinSplitEntries  int     `yaml:"min_split_entries"`
	SplitSpreadRatio float64 `yaml:"split_spread_ratio"`
	SplitSpreadFloor float64 `yaml:"split_spread_floor"`

	// Adjacent sorted amounts join a cluster while within
	// max(avg*ClusterTolerance, ClusterFloor) of its running average.
	ClusterTolerance float64 `yaml:"cluster_tolerance"`
	ClusterFloor     float64 `yaml:"cluster_floor"`
	MinClusterSize   int     `yaml:"min_cluster_size"`

	// max-min below this marks the amount as fixed.
	FixedAmountTolerance float64 `yaml:"fixed_amount_tolerance"`

	// Majority vote used when the average gap falls outside every band.
	VoteShare     float64 `yaml:"vote_share"`
	VoteMinGaps   int     `yaml:"vote_min_gaps"`
	VoteSlackDays float64 `yaml:"vote_slack_days"`

	// Bands in ranking order.
	Bands []Band `yaml:"bands"`
}

// DefaultBands are the frequency bands in ranking order.
func DefaultBands() []Band {
	return []Band{
		{Frequency: Weekly, MinDays: 5, MaxDays: 10},
		{Frequency: BiWeekly, MinDays: 12, MaxDays: 18},
		{Frequency: Monthly, MinDays: 25, MaxDays: 35},
		{Frequency: BiMonthly, MinDays: 55, MaxDays: 70},
		{Frequency: Quarterly, MinDays: 85, MaxDays: 100},
	}
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinSplitEntries:      3,
		SplitSpreadRatio:     0.25,
		SplitSpreadFloor:     2.0,
		ClusterTolerance:     0.15,
		ClusterFloor:         2.0,
		MinClusterSize:       2,
		FixedAmountTolerance: 1.00,
		VoteShare:            0.40,
		VoteMinGaps:          2,
		VoteSlackDays:        3,
		Bands:                DefaultBands(),
	}
}

// withDefaults fills zero fields from DefaultConfig so partial YAML works.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinSplitEntries == 0 {
		c.MinSplitEntries = d.MinSplitEntries
	}
	if c.SplitSpreadRatio == 0 {
		c.SplitSpreadRatio = d.SplitSpreadRatio
	}
	if c.SplitSpreadFloor == 0 {
		c.SplitSpreadFloor = d.SplitSpreadFloor
	}
	if c.ClusterTolerance == 0 {
		c.ClusterTolerance = d.ClusterTolerance
	}
	if c.ClusterFloor == 0 {
		c.ClusterFloor = d.ClusterFloor
	}
	if c.MinClusterSize == 0 {
		c.MinClusterSize = d.MinClusterSize
	}
	if c.FixedAmountTolerance == 0 {
		c.FixedAmountTolerance = d.FixedAmountTolerance
	}
	if c.VoteShare == 0 {
		c.VoteShare = d.VoteShare
	}
	if c.VoteMinGaps == 0 {
		c.VoteMinGaps = d.VoteMinGaps
	}
	if c.VoteSlackDays == 0 {
		c.VoteSlackDays = d.VoteSlackDays
	}
	if len(c.Bands) == 0 {
		c.Bands = d.Bands
	}
	return c
}
