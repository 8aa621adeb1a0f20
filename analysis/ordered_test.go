package analysis_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinsight/dashboard/analysis"
)

func TestStringMapPreservesOrder(t *testing.T) {
	// Enough keys that a map-backed decode would scramble them.
	input := `{`
	var want []string
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("metric%02d", i)
		want = append(want, key)
		if i > 0 {
			input += ","
		}
		input += fmt.Sprintf("%q:%q", key, "v")
	}
	input += `}`

	var m analysis.StringMap
	require.NoError(t, json.Unmarshal([]byte(input), &m))
	assert.Equal(t, want, m.Keys)
	assert.True(t, m.Present())
}

func TestStringMapAbsentVersusEmpty(t *testing.T) {
	var holder struct {
		Metrics analysis.StringMap `json:"metrics"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &holder))
	assert.False(t, holder.Metrics.Present())

	require.NoError(t, json.Unmarshal([]byte(`{"metrics":null}`), &holder))
	assert.False(t, holder.Metrics.Present())

	require.NoError(t, json.Unmarshal([]byte(`{"metrics":{}}`), &holder))
	assert.True(t, holder.Metrics.Present())
	assert.Zero(t, holder.Metrics.Len())
}

func TestStringMapCoercesScalarValues(t *testing.T) {
	var m analysis.StringMap
	require.NoError(t, json.Unmarshal([]byte(`{"LCP":"2.1 s","CLS":0.02,"FID":null}`), &m))

	assert.Equal(t, []string{"LCP", "CLS", "FID"}, m.Keys)
	assert.Equal(t, "2.1 s", m.Values["LCP"])
	// Bare numbers are kept as their literal text, null becomes empty.
	assert.Equal(t, "0.02", m.Values["CLS"])
	assert.Equal(t, "", m.Values["FID"])
}

func TestFloatMapPreservesOrder(t *testing.T) {
	var m analysis.FloatMap
	require.NoError(t, json.Unmarshal([]byte(`{"seo":2.5,"web":1.25,"go":2.5}`), &m))
	assert.Equal(t, []string{"seo", "web", "go"}, m.Keys)
	assert.Equal(t, 1.25, m.Values["web"])
}

func TestStringListMapDecode(t *testing.T) {
	var m analysis.StringListMap
	require.NoError(t, json.Unmarshal([]byte(`{"h1":["Welcome"],"h2":[],"h3":["A","B"]}`), &m))
	assert.Equal(t, []string{"h1", "h2", "h3"}, m.Keys)
	assert.Empty(t, m.Values["h2"])
	assert.Equal(t, []string{"A", "B"}, m.Values["h3"])
}

func TestOrderedMarshal(t *testing.T) {
	m := analysis.FloatMap{
		Keys:   []string{"zeta", "alpha"},
		Values: map[string]float64{"zeta": 1, "alpha": 2},
	}
	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":2}`, string(out))

	var absent analysis.StringMap
	out, err = json.Marshal(absent)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestOrderedRejectsNonObject(t *testing.T) {
	var m analysis.StringMap
	assert.Error(t, json.Unmarshal([]byte(`["not","an","object"]`), &m))
}
