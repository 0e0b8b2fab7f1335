package checker

import (
	"strings"
	"testing"
	"time"

	"gp-intake-checker/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func fixedClock() time.Time {
	return time.Date(2025, 3, 4, 13, 14, 15, 123456000, time.FixedZone("IST", 3600))
}

func TestNormalize_OverwritesIdentity(t *testing.T) {
	n := NewNormalizer(fixedClock)
	check := entity.PracticeCheck{
		Practice: "Some Other Practice",
		URL:      "https://evil.example/",
		Status:   entity.StatusUnclear,
	}

	n.Normalize(&check, entity.Practice{Name: "Ark Medical Centre", URL: "https://arkmedical.ie/"})

	assert.Equal(t, "Ark Medical Centre", check.Practice)
	assert.Equal(t, "https://arkmedical.ie/", check.URL)
}

func TestNormalize_Email(t *testing.T) {
	tests := []struct {
		name   string
		status entity.CheckStatus
		email  *string
		want   *string
	}{
		{"accepting trims", entity.StatusAccepting, strPtr("  a@b.com  "), strPtr("a@b.com")},
		{"accepting blank collapses", entity.StatusAccepting, strPtr("   "), nil},
		{"accepting empty collapses", entity.StatusAccepting, strPtr(""), nil},
		{"accepting absent stays absent", entity.StatusAccepting, nil, nil},
		{"not accepting drops email", entity.StatusNotAccepting, strPtr("x@y.com"), nil},
		{"unclear drops email", entity.StatusUnclear, strPtr("x@y.com"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := entity.PracticeCheck{Status: tt.status, ContactEmail: tt.email}
			NewNormalizer(fixedClock).Normalize(&check, entity.Practice{Name: "P", URL: "u"})

			if tt.want == nil {
				assert.Nil(t, check.ContactEmail)
				assert.False(t, check.HasEmail())
				return
			}
			require.NotNil(t, check.ContactEmail)
			assert.Equal(t, *tt.want, *check.ContactEmail)
			assert.True(t, check.HasEmail())
		})
	}
}

func TestNormalize_StampsUTCWithZ(t *testing.T) {
	check := entity.PracticeCheck{Status: entity.StatusUnclear, CheckedAt: strPtr("agent supplied")}
	NewNormalizer(fixedClock).Normalize(&check, entity.Practice{Name: "P", URL: "u"})

	require.NotNil(t, check.CheckedAt)
	assert.Equal(t, "2025-03-04T12:14:15.123456Z", *check.CheckedAt)
	assert.False(t, strings.Contains(*check.CheckedAt, "+00:00"))

	parsed, err := time.Parse(time.RFC3339Nano, *check.CheckedAt)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(fixedClock()))
}

func TestNormalize_DefaultClockIsNow(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Microsecond)
	check := entity.PracticeCheck{Status: entity.StatusUnclear}
	NewNormalizer(nil).Normalize(&check, entity.Practice{Name: "P", URL: "u"})

	require.NotNil(t, check.CheckedAt)
	assert.True(t, strings.HasSuffix(*check.CheckedAt, "Z"))
	parsed, err := time.Parse(time.RFC3339Nano, *check.CheckedAt)
	require.NoError(t, err)
	assert.False(t, parsed.Before(before))
}

func TestFallbacks(t *testing.T) {
	p := entity.Practice{Name: "Sirona Medical", URL: "https://www.sironamedical.ie/"}

	fb := Fallback(p)
	assert.Equal(t, entity.PracticeCheck{
		Practice: "Sirona Medical",
		URL:      "https://www.sironamedical.ie/",
		Status:   entity.StatusUnclear,
		Evidence: "",
	}, fb)

	failed := FailureFallback(p, assert.AnError)
	assert.Equal(t, entity.StatusUnclear, failed.Status)
	assert.Equal(t, "check failed: "+assert.AnError.Error(), failed.Evidence)
	assert.Nil(t, failed.ContactEmail)
}

func TestResults_PreservesOrderAndCopies(t *testing.T) {
	r := NewResults(2)
	r.Append(entity.PracticeCheck{Practice: "b"})
	r.Append(entity.PracticeCheck{Practice: "a"})
	r.Append(entity.PracticeCheck{Practice: "a"})

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "a"}, []string{all[0].Practice, all[1].Practice, all[2].Practice})

	all[0].Practice = "mutated"
	assert.Equal(t, "b", r.All()[0].Practice)
}
