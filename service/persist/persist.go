package persist

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain identifies the network a token was minted on
type Chain string

// ChainEthereum is the only chain currently ingested
const ChainEthereum Chain = "ethereum"

// TokenType distinguishes the two supported token standards
type TokenType string

const (
	// TokenTypeERC721 is the single-token standard
	TokenTypeERC721 TokenType = "ERC-721"
	// TokenTypeERC1155 is the multi-token standard
	TokenTypeERC1155 TokenType = "ERC-1155"
)

// MediaType tags which metadata field a mirrored blob came from
type MediaType string

const (
	MediaTypeImage     MediaType = "image"
	MediaTypeAnimation MediaType = "animation"
)

// StorageBackend tags where a mirrored blob lives
type StorageBackend string

const StorageBackendS3 StorageBackend = "s3"

// TokenMetadata is a raw token metadata document, parsed but not yet normalized
type TokenMetadata map[string]interface{}

// Address represents an Ethereum address, normalized to lowercase 0x hex
type Address string

// AddressFromCommon converts a go-ethereum address to its canonical form
func AddressFromCommon(addr common.Address) Address {
	return Address(strings.ToLower(addr.Hex()))
}

func (a Address) String() string {
	return strings.ToLower(string(a))
}

// ToCommon returns the address as a go-ethereum byte-array address
func (a Address) ToCommon() common.Address {
	return common.HexToAddress(a.String())
}

// Value implements the driver.Valuer interface for the Address type
func (a Address) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements the sql.Scanner interface for the Address type
func (a *Address) Scan(src interface{}) error {
	if src == nil {
		*a = Address("")
		return nil
	}
	switch it := src.(type) {
	case string:
		*a = Address(it)
	case []uint8:
		*a = Address(it)
	default:
		return fmt.Errorf("cannot scan %T into Address", src)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for the Address type
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for the Address type
func (a *Address) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*a = Address(strings.ToLower(s))
	return nil
}

// TokenID is a token's id as an arbitrary-precision decimal string
type TokenID string

// TokenIDFromBig converts a uint256 into its decimal string form
func TokenIDFromBig(i *big.Int) TokenID {
	return TokenID(i.String())
}

func (id TokenID) String() string {
	return string(id)
}

// BigInt parses the decimal token id. Unparseable ids become zero, matching
// the zero fallback contracts receive for malformed ids.
func (id TokenID) BigInt() *big.Int {
	i, ok := new(big.Int).SetString(string(id), 10)
	if !ok {
		return big.NewInt(0)
	}
	return i
}

// Value implements the driver.Valuer interface for token IDs
func (id TokenID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements the sql.Scanner interface for token IDs
func (id *TokenID) Scan(src interface{}) error {
	if src == nil {
		*id = TokenID("")
		return nil
	}
	switch it := src.(type) {
	case string:
		*id = TokenID(it)
	case []uint8:
		*id = TokenID(it)
	default:
		return fmt.Errorf("cannot scan %T into TokenID", src)
	}
	return nil
}

// Value implements the driver.Valuer interface for the Chain type
func (c Chain) Value() (driver.Value, error) {
	return string(c), nil
}

// Scan implements the sql.Scanner interface for the Chain type
func (c *Chain) Scan(src interface{}) error {
	if src == nil {
		*c = Chain("")
		return nil
	}
	*c = Chain(src.(string))
	return nil
}

// Value implements the driver.Valuer interface for the MediaType type
func (m MediaType) Value() (driver.Value, error) {
	return string(m), nil
}

// Scan implements the sql.Scanner interface for the MediaType type
func (m *MediaType) Scan(src interface{}) error {
	if src == nil {
		*m = MediaType("")
		return nil
	}
	*m = MediaType(src.(string))
	return nil
}

// Value implements the driver.Valuer interface for the StorageBackend type
func (s StorageBackend) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements the sql.Scanner interface for the StorageBackend type
func (s *StorageBackend) Scan(src interface{}) error {
	if src == nil {
		*s = StorageBackend("")
		return nil
	}
	*s = StorageBackend(src.(string))
	return nil
}

// JSONB carries an arbitrary JSON value to and from a jsonb column. Valid is
// false when the value is absent entirely (a SQL NULL), which is distinct
// from a present JSON null.
type JSONB struct {
	V     interface{}
	Valid bool
}

// JSONBFrom wraps a present JSON value
func JSONBFrom(v interface{}) JSONB {
	return JSONB{V: v, Valid: true}
}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if !j.Valid {
		return nil, nil
	}
	return json.Marshal(j.V)
}

// Scan implements the sql.Scanner interface for JSONB. Numbers are decoded as
// json.Number so big integer values survive a round trip through the store.
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = JSONB{}
		return nil
	}

	var b []byte
	switch it := src.(type) {
	case []uint8:
		b = it
	case string:
		b = []byte(it)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", src)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&j.V); err != nil {
		return err
	}
	j.Valid = true
	return nil
}

// MarshalJSON implements the json.Marshaler interface for JSONB
func (j JSONB) MarshalJSON() ([]byte, error) {
	if !j.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(j.V)
}

// UnmarshalJSON implements the json.Unmarshaler interface for JSONB
func (j *JSONB) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&j.V); err != nil {
		return err
	}
	j.Valid = true
	return nil
}
