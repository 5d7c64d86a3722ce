package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcohort/eligibility-api/internal/model"
)

func strp(s string) *string { return &s }

func TestDedupePatients(t *testing.T) {
	rows := []model.Patient{
		{ID: "p1", FamilyName: strp("Old")},
		{ID: "p2", FamilyName: strp("Kept")},
		{ID: "p1", FamilyName: strp("New")},
	}

	out := dedupePatients(rows)

	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].ID)
	assert.Equal(t, "New", *out[0].FamilyName)
	assert.Equal(t, "p2", out[1].ID)
}

func TestDedupePatientsNoDuplicates(t *testing.T) {
	rows := []model.Patient{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, rows, dedupePatients(rows))
}

func TestDedupePatientsEmpty(t *testing.T) {
	assert.Empty(t, dedupePatients(nil))
}
