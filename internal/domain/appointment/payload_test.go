package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	candidateID := uuid.New()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, p *Payload)
	}{
		{
			name: "regular",
			raw:  `{"promotionType":"REGULAR","candidateId":"` + candidateID.String() + `"}`,
			check: func(t *testing.T, p *Payload) {
				assert.Equal(t, PromotionTypeRegular, p.PromotionType)
				assert.Equal(t, candidateID, *p.CandidateID)
			},
		},
		{
			name: "special lower case type",
			raw:  `{"promotionType":"special","employeeId":"` + uuid.NewString() + `","targetGradeName":"대리"}`,
			check: func(t *testing.T, p *Payload) {
				assert.Equal(t, PromotionTypeSpecial, p.PromotionType)
				assert.Equal(t, "대리", p.TargetGradeName)
			},
		},
		{
			name: "assignment only",
			raw:  `{"jobTitle":"파트장"}`,
			check: func(t *testing.T, p *Payload) {
				a := p.Assignment()
				assert.Nil(t, a.DepartmentID)
				require.NotNil(t, a.JobTitle)
				assert.Equal(t, "파트장", *a.JobTitle)
			},
		},
		{name: "regular without candidate", raw: `{"promotionType":"REGULAR"}`, wantErr: true},
		{name: "special without grade", raw: `{"promotionType":"SPECIAL"}`, wantErr: true},
		{name: "unknown type", raw: `{"promotionType":"LATERAL"}`, wantErr: true},
		{name: "bad effective date", raw: `{"effectiveDate":"01/01/2027"}`, wantErr: true},
		{name: "not json", raw: `<xml/>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePayload([]byte(tt.raw))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidPayload), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestPayload_EffectiveOn(t *testing.T) {
	p, err := ParsePayload([]byte(`{"effectiveDate":"2027-01-01"}`))
	require.NoError(t, err)

	loc := time.FixedZone("KST", 9*60*60)
	got, err := p.EffectiveOn(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, loc), got)

	empty := &Payload{}
	got, err = empty.EffectiveOn(loc)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
