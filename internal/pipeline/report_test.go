package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Text(t *testing.T) {
	rep := Report{
		RunID:    "0191d2a0-5b7c-7aa1-b1de-9f51b8e3c001",
		Inserted: 3,
		Sent:     2,
		Pending:  1,
		Total:    5,
	}

	g := goldie.New(t)
	g.Assert(t, "report", []byte(rep.Text()))
}

func TestReport_JSON(t *testing.T) {
	rep := Report{RunID: "run-1", Inserted: 1, Sent: 1, Total: 2}

	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"run_id":"run-1","inserted":1,"sent":1,"pending":0,"total":2}`,
		string(data))
}
