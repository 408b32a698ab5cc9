package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ednaapi/internal/model"
)

func TestRawPredictionUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RawPrediction
	}{
		{
			name: "bare label string",
			in:   `"Panthera tigris"`,
			want: RawPrediction{Label: "Panthera tigris", Confidence: 1.0},
		},
		{
			name: "label score tuple",
			in:   `["Canis lupus", 0.87]`,
			want: RawPrediction{Label: "Canis lupus", Confidence: 0.87},
		},
		{
			name: "object with canonical keys",
			in:   `{"sequence_id":"s1","predicted_species":"Homo sapiens","confidence":0.5}`,
			want: RawPrediction{SequenceID: "s1", Label: "Homo sapiens", Confidence: 0.5},
		},
		{
			name: "object with label and score",
			in:   `{"label":"Homo sapiens","score":0.42}`,
			want: RawPrediction{Label: "Homo sapiens", Confidence: 0.42},
		},
		{
			name: "object with species and probability",
			in:   `{"id":"x","species":"Danio rerio","probability":0.9}`,
			want: RawPrediction{SequenceID: "x", Label: "Danio rerio", Confidence: 0.9},
		},
		{
			name: "object with prediction key only",
			in:   `{"prediction":"Mus musculus"}`,
			want: RawPrediction{Label: "Mus musculus"},
		},
		{
			name: "empty object",
			in:   `{}`,
			want: RawPrediction{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got RawPrediction
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRawPredictionUnmarshalList(t *testing.T) {
	// A whole response mixing every shape, as a sloppy endpoint might send.
	in := `["Panthera tigris", ["Canis lupus", 0.8], {"label":"Mus musculus","score":0.6}]`
	var got []RawPrediction
	require.NoError(t, json.Unmarshal([]byte(in), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "Panthera tigris", got[0].Label)
	assert.Equal(t, 0.8, got[1].Confidence)
	assert.Equal(t, "Mus musculus", got[2].Label)
}

func TestRawPredictionUnmarshalErrors(t *testing.T) {
	var p RawPrediction
	assert.Error(t, json.Unmarshal([]byte(`["only-label"]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`42`), &p))
}

func TestNormalize(t *testing.T) {
	records := []model.SequenceRecord{
		{SequenceID: "s1", Sequence: "ACGT"},
		{SequenceID: "s2", Sequence: "TTTT"},
		{SequenceID: "s3", Sequence: "GGGG"},
	}
	raw := []RawPrediction{
		{Label: "Panthera tigris", Confidence: 0.92},
		{Label: "", Confidence: 1.7}, // missing label, out-of-range score
	}

	got := Normalize(records, raw, SourceCustom)
	require.Len(t, got, 3)

	assert.Equal(t, model.Prediction{
		SequenceID:       "s1",
		Sequence:         "ACGT",
		PredictedSpecies: "Panthera tigris",
		Confidence:       0.92,
		Source:           SourceCustom,
	}, got[0])

	// Empty label defaults to Unknown; confidence clamps to [0, 1].
	assert.Equal(t, UnknownSpecies, got[1].PredictedSpecies)
	assert.Equal(t, 1.0, got[1].Confidence)

	// Raw output shorter than input pads with Unknown.
	assert.Equal(t, UnknownSpecies, got[2].PredictedSpecies)
	assert.Equal(t, 0.0, got[2].Confidence)
	assert.Equal(t, SourceCustom, got[2].Source)
}

func TestNormalizeTruncatesExtraRaw(t *testing.T) {
	records := []model.SequenceRecord{{SequenceID: "s1", Sequence: "ACGT"}}
	raw := []RawPrediction{{Label: "A"}, {Label: "B"}}

	got := Normalize(records, raw, SourceRemote)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].PredictedSpecies)
}

func TestUnknowns(t *testing.T) {
	records := []model.SequenceRecord{{SequenceID: "s1", Sequence: "ACGT"}}
	got := Unknowns(records, SourceError)
	require.Len(t, got, 1)
	assert.Equal(t, UnknownSpecies, got[0].PredictedSpecies)
	assert.Equal(t, SourceError, got[0].Source)
	assert.Equal(t, 0.0, got[0].Confidence)
}
