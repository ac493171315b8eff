package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandResolvesPaths(t *testing.T) {
	data := map[string]any{
		"user":  map[string]any{"name": "Ada"},
		"files": []any{"a.csv", "b.csv"},
	}
	got, err := Expand(`hi ${user.name}, ${files[1]} ${nope}`, data)
	assert.ErrorContains(t, err, "nope")
	assert.Equal(t, "hi Ada, b.csv ${nope}", got)

	got, err = Expand("${x}", nil)
	assert.Error(t, err)
	assert.Equal(t, "${x}", got)
}

func TestExpandReportsMissing(t *testing.T) {
	out, err := Expand(`output "${dir}/${name}.pdf" ${dir} ${quarter}`, map[string]any{"dir": "out"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "quarter")
	assert.Equal(t, `output "out/${name}.pdf" out ${quarter}`, out)

	out, err = Expand("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestVarsMergesJSONAndPairs(t *testing.T) {
	vars, err := Vars(`{"quarter": "Q2", "user": {"name": "Ada", "team": "ops"}}`,
		[]string{"quarter=Q3", "user.name=Grace", "dir=out=1"})
	require.NoError(t, err)

	got, err := Expand("${quarter} ${user.name} ${user.team} ${dir}", vars)
	require.NoError(t, err)
	assert.Equal(t, "Q3 Grace ops out=1", got)
}

func TestVarsErrors(t *testing.T) {
	_, err := Vars("{", nil)
	assert.Error(t, err)

	_, err = Vars("", []string{"novalue"})
	assert.Error(t, err)

	_, err = Vars(`{"quarter": "Q2"}`, []string{"quarter.month=5"})
	assert.Error(t, err)
}
