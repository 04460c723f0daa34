package workload

import (
	"math"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
)

const (
	acuteDays    = 7
	chronicWeeks = 4
	// maxMonotony caps mean/SD when weekly loads are (nearly) identical.
	maxMonotony = 10.0
)

type Band string

const (
	BandDanger        Band = "danger"
	BandHighRisk      Band = "high_risk"
	BandCaution       Band = "caution"
	BandOptimal       Band = "optimal"
	BandUndertraining Band = "undertraining"
	BandDetraining    Band = "detraining"
	BandInsufficient  Band = "insufficient_data"
)

const (
	citationGabbett = "Gabbett TJ. The training-injury prevention paradox: should athletes be training smarter and harder? Br J Sports Med. 2016;50(5):273-280."
	citationHulin   = "Hulin BT, Gabbett TJ, Lawson DW, et al. The acute:chronic workload ratio predicts injury. Br J Sports Med. 2016;50(4):231-236."
	citationFoster  = "Foster C. Monitoring training in athletes with reference to overtraining syndrome. Med Sci Sports Exerc. 1998;30(7):1164-1168."
	citationMujika  = "Mujika I, Padilla S. Detraining: loss of training-induced physiological and performance adaptations. Sports Med. 2000;30(2):79-87."
)

type bandInfo struct {
	band           Band
	recommendation string
	citation       string
}

// bands are ordered from the highest lower bound down; the first band whose
// bound the ratio exceeds (or meets, when inclusive) wins.
var bands = []struct {
	lower     float64
	inclusive bool
	info      bandInfo
}{
	{2.0, false, bandInfo{BandDanger, "Workload spiked far above what you are used to. Take a deload and cut volume by at least 40% this week.", citationGabbett}},
	{1.5, false, bandInfo{BandHighRisk, "Workload is rising too fast. Reduce volume by 20-30% until the ratio is back under 1.3.", citationHulin}},
	{1.3, false, bandInfo{BandCaution, "Workload is climbing. Hold volume steady rather than adding more this week.", citationHulin}},
	{0.8, true, bandInfo{BandOptimal, "Workload is in the sweet spot. Progress as planned.", citationGabbett}},
	{0.5, true, bandInfo{BandUndertraining, "Recent training is lighter than your base. Build volume back up gradually.", citationGabbett}},
	{math.Inf(-1), true, bandInfo{BandDetraining, "Training has dropped off sharply and adaptations are fading. Resume regular sessions.", citationMujika}},
}

// Metrics is the workload health snapshot as of the latest load.
type Metrics struct {
	AsOf           time.Time `json:"asOf"`
	Acute          float64   `json:"acute"`
	Chronic        float64   `json:"chronic"`
	WeeklyLoads    []float64 `json:"weeklyLoads"`
	ACWR           float64   `json:"acwr"`
	Monotony       float64   `json:"monotony"`
	Strain         float64   `json:"strain"`
	Band           Band      `json:"band"`
	Recommendation string    `json:"recommendation"`
	Citation       string    `json:"citation,omitempty"`
	MonotonyNote   string    `json:"monotonyNote,omitempty"`
	Confidence     float64   `json:"confidence"`
}

// Sufficient reports whether there was enough history to compute a ratio.
func (m Metrics) Sufficient() bool {
	return m.Band != BandInsufficient
}

// Classify maps a ratio onto its band.
func Classify(acwr float64) (Band, string, string) {
	for _, b := range bands {
		if acwr > b.lower || (b.inclusive && acwr == b.lower) {
			return b.info.band, b.info.recommendation, b.info.citation
		}
	}
	last := bands[len(bands)-1].info
	return last.band, last.recommendation, last.citation
}

// CalculateACWR computes acute (last 7 days) and chronic (mean of the last
// four weekly sums) load, their ratio, and Foster's monotony and strain over
// the chronic weeks. The window ends at the latest load date. With no
// chronic load the insufficient-data sentinel is returned.
func CalculateACWR(loads []DailyLoad) Metrics {
	if len(loads) == 0 {
		return insufficient(time.Time{}, nil)
	}

	var asOf time.Time
	for _, l := range loads {
		if l.Date.After(asOf) {
			asOf = l.Date
		}
	}
	end := truncateDay(asOf)

	weekly := make([]float64, chronicWeeks)
	for _, l := range loads {
		if !stats.IsFinite(l.Load) || l.Load <= 0 {
			continue
		}
		daysBack := int(math.Floor(end.Sub(truncateDay(l.Date)).Hours()/24 + 0.5))
		if daysBack < 0 {
			continue
		}
		if week := daysBack / acuteDays; week < chronicWeeks {
			weekly[week] += l.Load
		}
	}

	acute := weekly[0]
	chronic := stats.Mean(weekly)
	if chronic < stats.Epsilon {
		return insufficient(asOf, weekly)
	}

	acwr := acute / chronic
	band, rec, cite := Classify(acwr)

	monotony := maxMonotony
	if sd := stats.StdDev(weekly); sd > stats.Epsilon {
		monotony = math.Min(maxMonotony, chronic/sd)
	}

	weeksWithLoad := 0
	for _, w := range weekly {
		if w > 0 {
			weeksWithLoad++
		}
	}

	return Metrics{
		AsOf:           asOf,
		Acute:          acute,
		Chronic:        chronic,
		WeeklyLoads:    weekly,
		ACWR:           acwr,
		Monotony:       monotony,
		Strain:         acute * monotony,
		Band:           band,
		Recommendation: rec,
		Citation:       cite,
		MonotonyNote:   "monotony = mean/SD of weekly load; " + citationFoster,
		Confidence:     float64(weeksWithLoad) / chronicWeeks,
	}
}

func insufficient(asOf time.Time, weekly []float64) Metrics {
	return Metrics{
		AsOf:        asOf,
		WeeklyLoads: weekly,
		Band:        BandInsufficient,
	}
}
