package tokenvault_test

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

func TestAddressPrinting(t *testing.T) {
	Convey("test hexademical address printing", t, func() {
		b := []byte("ABCD123456LHB")
		addr := tokenvault.Address(b)

		So(addr.String(), ShouldNotEqual, fmt.Sprintf("%X", addr))
	})

	Convey("test hexademical condition printing", t, func() {
		cond := tokenvault.NewCondition("12", "32", []byte("ABCD123456LHB"))

		So(cond.String(), ShouldNotEqual, fmt.Sprintf("%X", cond))
	})
}

func TestAddressUnmarshalJSON(t *testing.T) {
	addr := tokenvault.NewCondition("foo", "bar", []byte("conditiondata")).Address()
	addrHex := hex.EncodeToString(addr)
	addrBech32, err := addr.Bech32("tvault")
	require.NoError(t, err)

	cases := map[string]struct {
		json     string
		wantErr  *errors.Error
		wantAddr tokenvault.Address
	}{
		"default decoding": {
			json:     `"` + addrHex + `"`,
			wantAddr: addr,
		},
		"upper case hex decoding": {
			json:     `"hex:` + strings.ToUpper(addrHex) + `"`,
			wantAddr: addr,
		},
		"cond decoding": {
			json:     `"cond:foo/bar/636f6e646974696f6e64617461"`,
			wantAddr: addr,
		},
		"bech32 decoding": {
			json:     `"bech32:` + addrBech32 + `"`,
			wantAddr: addr,
		},
		"invalid address length": {
			json:    `"6865782d61646472"`,
			wantErr: errors.ErrInput,
		},
		"invalid condition format": {
			json:    `"cond:foo/636f6e646974696f6e64617461"`,
			wantErr: errors.ErrInput,
		},
		"invalid condition data": {
			json:    `"cond:foo/bar/zzzzz"`,
			wantErr: errors.ErrInput,
		},
		"invalid bech32": {
			json:    `"bech32:tvault1xxxx"`,
			wantErr: errors.ErrInput,
		},
		"unknown format": {
			json:    `"foobar:xxx"`,
			wantErr: errors.ErrType,
		},
		"zero address": {
			json:     `""`,
			wantAddr: nil,
		},
		"zero cond address": {
			json:     `"cond:"`,
			wantAddr: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var a tokenvault.Address
			err := json.Unmarshal([]byte(tc.json), &a)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil {
				assert.Equal(t, tc.wantAddr, a)
			}
		})
	}
}

func TestAddressJSONRoundtrip(t *testing.T) {
	addr := tokenvault.NewCondition("vault", "reserve", []byte{1}).Address()
	raw, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(raw))

	var got tokenvault.Address
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, addr, got)
}

func TestConditionParse(t *testing.T) {
	cases := map[string]struct {
		cond     tokenvault.Condition
		wantExt  string
		wantType string
		wantData []byte
		wantErr  *errors.Error
	}{
		"valid": {
			cond:     tokenvault.NewCondition("vaultd", "signer", []byte("alice")),
			wantExt:  "vaultd",
			wantType: "signer",
			wantData: []byte("alice"),
		},
		"data with a newline": {
			cond:     tokenvault.NewCondition("sigs", "ed25519", []byte("a\nb")),
			wantExt:  "sigs",
			wantType: "ed25519",
			wantData: []byte("a\nb"),
		},
		"missing data": {
			cond:    tokenvault.NewCondition("vault", "reserve", nil),
			wantErr: errors.ErrInput,
		},
		"extension too long": {
			cond:    tokenvault.NewCondition("averylongext", "foo", []byte("x")),
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ext, typ, data, err := tc.cond.Parse()
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if !tc.wantErr.Is(tc.cond.Validate()) {
				t.Fatalf("validate and parse disagree")
			}
			assert.Equal(t, tc.wantExt, ext)
			assert.Equal(t, tc.wantType, typ)
			assert.Equal(t, tc.wantData, data)
		})
	}
}
