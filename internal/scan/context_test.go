package scan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
)

func testCandidate() models.Candidate {
	return models.Candidate{
		Level:            100,
		Touches:          3,
		VolExpansion:     1.85,
		ATRExtension:     1.2,
		CompressionScore: 0.3,
	}
}

func TestFilterCandidateRegimeAdjustedVolumeGate(t *testing.T) {
	p := DefaultParams()
	c := testCandidate()

	// Under RISK_OFF the requirement is 1.8 * 1.4 = 2.52.
	_, ok := FilterCandidate(c, models.RegimeState{Status: models.RegimeRiskOff, VolMult: 1.4}, nil, p)
	require.False(t, ok)

	// Under RISK_ON the flat 1.8 applies and 1.85 clears it.
	sig, ok := FilterCandidate(c, models.RegimeState{Status: models.RegimeRiskOn, VolMult: 1.0}, nil, p)
	require.True(t, ok)
	require.True(t, sig.BlueSky)
}

func TestFilterCandidateBlueSky(t *testing.T) {
	p := DefaultParams()
	// The broken zone itself and near-duplicates within the 3% gap do not
	// count as overhead structure.
	zones := []models.Zone{{Level: 100, Touches: 3}, {Level: 102, Touches: 4}}

	sig, ok := FilterCandidate(testCandidate(), models.NeutralRegime(), zones, p)
	require.True(t, ok)
	require.True(t, sig.BlueSky)
	require.Equal(t, "Blue Sky (No Structure Detected)", sig.NextResistance)
}

func TestFilterCandidateLowRewardRejectedOffRiskOn(t *testing.T) {
	p := DefaultParams()
	zones := []models.Zone{{Level: 100, Touches: 3}, {Level: 104, Touches: 3}} // 4% upside

	_, ok := FilterCandidate(testCandidate(), models.NeutralRegime(), zones, p)
	require.False(t, ok, "low reward-to-risk tolerated only in healthy markets")

	sig, ok := FilterCandidate(testCandidate(), models.RegimeState{Status: models.RegimeRiskOn, VolMult: 1.0}, zones, p)
	require.True(t, ok)
	require.False(t, sig.BlueSky)
	require.Equal(t, 104.0, sig.NextLevel)
	require.InDelta(t, 4.0, sig.UpsidePct, 1e-9)
	require.Equal(t, "104.00 (+4.0%)", sig.NextResistance)
}

func TestFilterCandidateAmpleUpsideAccepted(t *testing.T) {
	p := DefaultParams()
	zones := []models.Zone{{Level: 100, Touches: 3}, {Level: 112, Touches: 5}}

	// 1.8 * 1.02 = 1.836, which 1.85 still clears.
	sig, ok := FilterCandidate(testCandidate(), models.RegimeState{Status: models.RegimeOverextended, VolMult: 1.02}, zones, p)
	require.True(t, ok)
	require.Equal(t, 112.0, sig.NextLevel)
	require.InDelta(t, 12.0, sig.UpsidePct, 1e-9)
	require.Equal(t, 1.02, sig.VolMult, "the qualifying multiplier travels with the signal")
}

func TestNextResistancePicksLowestAboveGap(t *testing.T) {
	zones := []models.Zone{
		{Level: 100, Touches: 3},
		{Level: 102.5, Touches: 3}, // inside the 3% gap
		{Level: 108, Touches: 3},
		{Level: 120, Touches: 3},
	}
	next, found := nextResistance(100, zones, 3.0)
	require.True(t, found)
	require.Equal(t, 108.0, next)

	_, found = nextResistance(119, zones, 3.0)
	require.False(t, found)
}
