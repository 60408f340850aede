package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
)

func TestClaimInput_Validate(t *testing.T) {
	t.Run("all missing", func(t *testing.T) {
		err := ClaimInput{}.Validate()

		ve, ok := httperr.AsValidation(err)
		require.True(t, ok)
		assert.Len(t, ve.Messages, 4)
	})

	t.Run("both selectors", func(t *testing.T) {
		err := ClaimInput{
			Selector:  Selector{UnitID: "u1", ExternalEventID: "ev1"},
			Email:     "a@b.co",
			Name:      "Ann",
			ContactNo: "123",
		}.Validate()

		ve, ok := httperr.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, []string{"provide either slotId or eventId, not both"}, ve.Messages)
	})

	t.Run("complete", func(t *testing.T) {
		err := ClaimInput{
			Selector:  Selector{ExternalEventID: "ev1"},
			Email:     "a@b.co",
			Name:      "Ann",
			ContactNo: "123",
		}.Validate()
		assert.NoError(t, err)
	})
}

func TestClaimInput_ValidateFieldLimits(t *testing.T) {
	valid := func() ClaimInput {
		return ClaimInput{
			Selector:  Selector{UnitID: "u1"},
			Email:     "guest@example.com",
			Name:      "Ann",
			ContactNo: "5550100",
		}
	}

	tests := []struct {
		name   string
		mutate func(*ClaimInput)
		want   string
	}{
		{"contact too long", func(in *ClaimInput) { in.ContactNo = strings.Repeat("1", 21) }, "contactNo must be at most 20 characters"},
		{"name too long", func(in *ClaimInput) { in.Name = strings.Repeat("a", 101) }, "name must be at most 100 characters"},
		{"email too long", func(in *ClaimInput) { in.Email = strings.Repeat("a", 90) + "@example.com" }, "email must be at most 100 characters"},
		{"email without domain", func(in *ClaimInput) { in.Email = "guest" }, "email is invalid"},
		{"email without tld", func(in *ClaimInput) { in.Email = "guest@example" }, "email is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)

			ve, ok := httperr.AsValidation(in.Validate())
			require.True(t, ok)
			assert.Equal(t, []string{tt.want}, ve.Messages)
		})
	}

	t.Run("limits are inclusive", func(t *testing.T) {
		in := valid()
		in.ContactNo = strings.Repeat("1", 20)
		in.Name = strings.Repeat("é", 100)
		assert.NoError(t, in.Validate())
	})
}

func TestClaimInput_ReplayKey(t *testing.T) {
	base := ClaimInput{Selector: Selector{UnitID: "u1"}, Email: "a@b.co", IdempotencyKey: "k"}

	other := base
	other.Selector = Selector{UnitID: "u2"}
	assert.NotEqual(t, base.ReplayKey(), other.ReplayKey())

	other = base
	other.Email = "c@d.co"
	assert.NotEqual(t, base.ReplayKey(), other.ReplayKey())

	byEvent := base
	byEvent.Selector = Selector{ExternalEventID: "u1"}
	assert.NotEqual(t, base.ReplayKey(), byEvent.ReplayKey())
}

func TestClaimInput_NormalizeBlanks(t *testing.T) {
	in := ClaimInput{
		Selector:  Selector{UnitID: "  "},
		Email:     " A@B.CO ",
		Name:      "  ",
		ContactNo: "1",
	}
	in.Normalize()

	assert.Equal(t, "a@b.co", in.Email)
	ve, ok := httperr.AsValidation(in.Validate())
	require.True(t, ok)
	assert.Contains(t, ve.Messages, "slotId or eventId is required")
	assert.Contains(t, ve.Messages, "name is required")
}

func TestSelector_Column(t *testing.T) {
	col, val := Selector{UnitID: "u1"}.Column()
	assert.Equal(t, "id", col)
	assert.Equal(t, "u1", val)

	col, val = Selector{ExternalEventID: "ev"}.Column()
	assert.Equal(t, "external_event_id", col)
	assert.Equal(t, "ev", val)
}

func TestPersistenceInconsistencyError_Unwrap(t *testing.T) {
	bookingErr := assert.AnError
	err := &PersistenceInconsistencyError{UnitID: "u1", BookingErr: bookingErr, CompensationErr: ErrUnitUnavailable}

	assert.ErrorIs(t, err, bookingErr)
	assert.ErrorIs(t, err, ErrUnitUnavailable)
	assert.Contains(t, err.Error(), "u1")
}
