package mintjobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artverse/ingest/service/persist"
)

func TestMintJobWireFormat(t *testing.T) {
	t.Run("a job serializes with exactly the four contract fields", func(t *testing.T) {
		a := assert.New(t)

		uri := "ipfs://QmX"
		job := MintJob{
			ContractAddress: "0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5",
			TokenID:         "1",
			Chain:           persist.ChainEthereum,
			MetadataURI:     &uri,
		}

		raw, err := json.Marshal(job)
		a.NoError(err)

		fields := map[string]json.RawMessage{}
		a.NoError(json.Unmarshal(raw, &fields))
		a.Len(fields, 4)
		a.Contains(fields, "contract_address")
		a.Contains(fields, "token_id")
		a.Contains(fields, "chain")
		a.Contains(fields, "metadata_uri")
	})

	t.Run("a missing URI serializes as an explicit null", func(t *testing.T) {
		a := assert.New(t)

		job := MintJob{
			ContractAddress: "0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5",
			TokenID:         "7",
			Chain:           persist.ChainEthereum,
		}

		raw, err := json.Marshal(job)
		a.NoError(err)
		a.JSONEq(`{"contract_address":"0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5","token_id":"7","chain":"ethereum","metadata_uri":null}`, string(raw))
	})

	t.Run("contract addresses serialize in lowercase hex", func(t *testing.T) {
		a := assert.New(t)

		job := MintJob{
			ContractAddress: persist.Address("0x9A3F9764B21ADAF3C6FDF6F947E6D3340A3F8AC5"),
			TokenID:         "1",
			Chain:           persist.ChainEthereum,
		}

		raw, err := json.Marshal(job)
		a.NoError(err)
		a.Contains(string(raw), `"contract_address":"0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5"`)
	})

	t.Run("a job round-trips through the wire format", func(t *testing.T) {
		a := assert.New(t)

		uri := "ar://abc123"
		job := MintJob{
			ContractAddress: "0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5",
			TokenID:         "115792089237316195423570985008687907853269984665640564039457584007913129639935",
			Chain:           persist.ChainEthereum,
			MetadataURI:     &uri,
		}

		raw, err := json.Marshal(job)
		a.NoError(err)

		var decoded MintJob
		a.NoError(json.Unmarshal(raw, &decoded))
		a.Equal(job, decoded)
	})

	t.Run("token ids stay decimal strings, never JSON numbers", func(t *testing.T) {
		a := assert.New(t)

		job := MintJob{
			ContractAddress: "0x9a3f9764b21adaf3c6fdf6f947e6d3340a3f8ac5",
			TokenID:         "115792089237316195423570985008687907853269984665640564039457584007913129639935",
			Chain:           persist.ChainEthereum,
		}

		raw, err := json.Marshal(job)
		a.NoError(err)
		a.Contains(string(raw), `"token_id":"115792089237316195423570985008687907853269984665640564039457584007913129639935"`)
	})
}
