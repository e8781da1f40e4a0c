package stats

import "math"

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean/variance (Welford's algorithm). The zero
// value is ready to use.
type Statistic struct {
	n    int
	last float64

	mean float64
	m2   float64
}

func (s *Statistic) Push(val float64) {
	s.last = val
	s.n++
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
}

func (s *Statistic) Mean() float64 {
	return s.mean
}

// Variance is the sample variance; zero with fewer than two samples.
func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Last() float64 {
	return s.last
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

func (s *Statistic) Iterations() int {
	return s.n
}

// Merge folds o into s (Chan et al. parallel variance), so per-worker
// statistics can be combined after a parallel run.
func (s *Statistic) Merge(o *Statistic) {
	if o.n == 0 {
		return
	}
	if s.n == 0 {
		*s = *o
		return
	}
	n := s.n + o.n
	delta := o.mean - s.mean
	s.m2 += o.m2 + delta*delta*float64(s.n)*float64(o.n)/float64(n)
	s.mean += delta * float64(o.n) / float64(n)
	s.n = n
	s.last = o.last
}

// Tally counts game results from one side's point of view.
type Tally struct {
	Wins   int `yaml:"wins"`
	Draws  int `yaml:"draws"`
	Losses int `yaml:"losses"`
}

func (t *Tally) Games() int {
	return t.Wins + t.Draws + t.Losses
}

// Score counts a draw as half a win, from 0 to 1.
func (t *Tally) Score() float64 {
	g := t.Games()
	if g == 0 {
		return 0
	}
	return (float64(t.Wins) + 0.5*float64(t.Draws)) / float64(g)
}

// Interval returns the normal-approximation confidence interval of Score
// at the given confidence (0 to 100 percent).
func (t *Tally) Interval(confidence float64) (lo, hi float64) {
	g := t.Games()
	if g == 0 {
		return 0, 1
	}
	p := t.Score()
	e := ZVal(confidence) * math.Sqrt(p*(1-p)/float64(g))
	return math.Max(0, p-e), math.Min(1, p+e)
}
