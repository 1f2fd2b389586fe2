package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2023, 9, 15, 17, 45, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2023-09-15"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, d, back)
}

func TestDate_UnmarshalVariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "calendar date", input: `"2023-01-15"`, want: "2023-01-15"},
		{name: "rfc3339 timestamp", input: `"2023-01-15T22:10:00Z"`, want: "2023-01-15"},
		{name: "empty string", input: `""`, want: ""},
		{name: "null", input: `null`, want: ""},
		{name: "day first", input: `"15/09/2023"`, want: "15/09/2023"},
		{name: "free text", input: `"yesterday"`, want: "yesterday"},
		{name: "number", input: `20230115`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, d.String())
		})
	}
}

func TestDate_PreservesUnparsedText(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"15/09/2023"`), &d))
	require.False(t, d.IsZero())
	require.False(t, d.Parsed())

	data, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"15/09/2023"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2023-09-15"`), &parsed))
	require.True(t, parsed.Parsed())
	require.True(t, Date{}.IsZero())
}

func TestValidateStage(t *testing.T) {
	require.NoError(t, ValidateStage("1"))
	require.NoError(t, ValidateStage("4"))
	require.NoError(t, ValidateStage(StageAdmin))

	for _, bad := range []string{"", "0", "-1", "Admin", "first"} {
		err := ValidateStage(bad)
		require.ErrorIs(t, err, ErrInvalidStage, "stage %q", bad)
	}
}

func TestNextUserID(t *testing.T) {
	require.Equal(t, int64(1), NextUserID(nil))
	require.Equal(t, int64(8), NextUserID([]User{{ID: 2}, {ID: 7}, {ID: 3}}))
}

func TestCountResources(t *testing.T) {
	subjects := []Subject{
		{ID: "IT101", ResourcesCount: 2},
		{ID: "IT102", ResourcesCount: 1},
		{ID: "IT201", ResourcesCount: 1},
	}
	resources := []Resource{
		{ID: "R001", SubjectID: "IT101"},
		{ID: "R002", SubjectID: "IT101"},
		{ID: "R003", SubjectID: "IT201"},
		{ID: "R004", SubjectID: "GONE"},
	}

	changed := CountResources(subjects, resources)
	require.Equal(t, 1, changed)
	require.Equal(t, 2, subjects[0].ResourcesCount)
	require.Equal(t, 0, subjects[1].ResourcesCount)
	require.Equal(t, 1, subjects[2].ResourcesCount)
}

func TestRemoveBySubject(t *testing.T) {
	resources := []Resource{
		{ID: "R001", SubjectID: "IT101"},
		{ID: "R002", SubjectID: "IT102"},
		{ID: "R003", SubjectID: "IT101"},
	}

	kept, removed := RemoveBySubject(resources, "IT101")
	require.Equal(t, 2, removed)
	require.Equal(t, []Resource{{ID: "R002", SubjectID: "IT102"}}, kept)
}

func TestDomainError(t *testing.T) {
	err := NewDomainError(ErrSubjectNotFound, "", "IT999")
	require.Equal(t, "subject not found (IT999)", err.Error())
	require.True(t, errors.Is(err, ErrSubjectNotFound))

}
