package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate_UnmarshalJSON(t *testing.T) {
	t.Run("interpreted and passthrough fields", func(t *testing.T) {
		var c Candidate
		err := json.Unmarshal([]byte(`{"title":"Whole Milk","price":3.49,"source":"Safeway","productId":"abc","rating":4.5}`), &c)
		require.NoError(t, err)

		assert.Equal(t, "Whole Milk", c.Title)
		assert.Equal(t, "Safeway", c.Source)
		require.NotNil(t, c.Price)
		assert.Equal(t, 3.49, *c.Price)
		assert.JSONEq(t, `"abc"`, string(c.Extra["productId"]))
		assert.JSONEq(t, `4.5`, string(c.Extra["rating"]))
		assert.NotContains(t, c.Extra, "price")
	})

	t.Run("extractedPrice fallback", func(t *testing.T) {
		var c Candidate
		require.NoError(t, json.Unmarshal([]byte(`{"title":"Milk","extractedPrice":2.57}`), &c))
		require.NotNil(t, c.Price)
		assert.Equal(t, 2.57, *c.Price)
		assert.Contains(t, c.Extra, "extractedPrice")
	})

	t.Run("price string", func(t *testing.T) {
		var c Candidate
		require.NoError(t, json.Unmarshal([]byte(`{"title":"Milk","price":"$4.10"}`), &c))
		require.NotNil(t, c.Price)
		assert.Equal(t, 4.10, *c.Price)
	})

	t.Run("negative or invalid price is missing", func(t *testing.T) {
		var c Candidate
		require.NoError(t, json.Unmarshal([]byte(`{"title":"Milk","price":-1}`), &c))
		assert.False(t, c.HasPrice())

		require.NoError(t, json.Unmarshal([]byte(`{"title":"Milk","price":"call for price"}`), &c))
		assert.False(t, c.HasPrice())

		require.NoError(t, json.Unmarshal([]byte(`{"title":"Milk","price":null}`), &c))
		assert.False(t, c.HasPrice())
	})

	t.Run("not an object", func(t *testing.T) {
		var c Candidate
		assert.Error(t, json.Unmarshal([]byte(`["milk"]`), &c))
	})
}

func TestCandidate_RoundTripKeepsUnknownFields(t *testing.T) {
	in := `{"title":"Whole Milk","price":3.49,"source":"Safeway","thumbnail":"https://img/1.png","position":3}`

	var c Candidate
	require.NoError(t, json.Unmarshal([]byte(in), &c))

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestExtractedComponents_IsEmpty(t *testing.T) {
	var nilComps *ExtractedComponents
	assert.True(t, nilComps.IsEmpty())
	assert.True(t, (&ExtractedComponents{}).IsEmpty())
	assert.False(t, (&ExtractedComponents{Item: StringPtr("milk")}).IsEmpty())
}

func TestReasons(t *testing.T) {
	assert.Equal(t, Reason("llm_priority_selection_third_case"), PriorityReason("third_case"))
	assert.Equal(t, Reason("low_confidence_tie_kept_top"), LowConfidenceReason(ReasonTieKeptTop))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrEmptyQuery))
	assert.True(t, IsValidationError(ErrInvalidWeights))
	assert.False(t, IsValidationError(ErrLLMFailure))
	assert.False(t, IsValidationError(nil))
}

func TestBatchResult_MarshalJSON(t *testing.T) {
	t.Run("success is the bare match response", func(t *testing.T) {
		data, err := json.Marshal(BatchResult{Query: "milk", Result: &MatchResponse{Score: 0.9, Reason: ReasonGeneralQueryCheapest}})
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, 0.9, got["score"])
		assert.NotContains(t, got, "error")
		assert.NotContains(t, got, "result")
	})

	t.Run("failure is error and query", func(t *testing.T) {
		data, err := json.Marshal(BatchResponse{Results: []BatchResult{{Query: "", Error: "query is required"}}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"results":[{"error":"query is required","query":""}]}`, string(data))
	})
}
