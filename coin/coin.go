package coin

import (
	"encoding/json"
	"math/big"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
	"github.com/iov-one/tokenvault/errors"
)

//-------------- Coin -----------------------

// IsCC is the RegExp to ensure valid currency codes
var IsCC = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

const (
	// Decimals is the number of decimal places of the human readable
	// representation. One whole unit equals 10^Decimals base units.
	Decimals = 18

	// maxUnitsLen is the maximum length of the serialized amount.
	maxUnitsLen = 32
)

// unit is 10^Decimals
var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Coin is an amount of a fungible asset, denominated in base units. The
// amount is an unsigned 256 bit integer serialized as big endian bytes
// without leading zeros.
type Coin struct {
	// Ticker is the currency code.
	Ticker string `protobuf:"bytes,1,opt,name=ticker,proto3" json:"ticker,omitempty"`
	// Units is the amount in base units.
	Units []byte `protobuf:"bytes,2,opt,name=units,proto3" json:"units,omitempty"`
}

func (m *Coin) Reset()      { *m = Coin{} }
func (*Coin) ProtoMessage() {}

// NewCoin creates a new coin object holding given amount of base units.
func NewCoin(units uint64, ticker string) Coin {
	return FromInt(new(uint256.Int).SetUint64(units), ticker)
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(units uint64, ticker string) *Coin {
	c := NewCoin(units, ticker)
	return &c
}

// FromWhole returns a coin holding given amount of whole units. For example
// FromWhole(100, "ETH") is 100 ETH, that is 100*10^18 base units.
func FromWhole(whole uint64, ticker string) Coin {
	v := new(big.Int).Mul(new(big.Int).SetUint64(whole), unit)
	// uint64 * 10^18 always fits in 256 bits.
	u, _ := uint256.FromBig(v)
	return FromInt(u, ticker)
}

// FromInt returns a coin holding given amount of base units.
func FromInt(v *uint256.Int, ticker string) Coin {
	c := Coin{Ticker: ticker}
	if v != nil && !v.IsZero() {
		c.Units = v.Bytes()
	}
	return c
}

// Zero returns a coin of given currency that holds no value.
func Zero(ticker string) Coin {
	return Coin{Ticker: ticker}
}

// Int returns the amount as an integer. A malformed amount results in
// zero, use Validate to ensure the coin is correct.
func (c Coin) Int() *uint256.Int {
	v := new(uint256.Int)
	if len(c.Units) <= maxUnitsLen {
		v.SetBytes(c.Units)
	}
	return v
}

// Big returns the amount as a big integer.
func (c Coin) Big() *big.Int {
	return c.Int().ToBig()
}

// ID returns a coin ticker name.
func (c Coin) ID() string {
	return c.Ticker
}

// Add combines two coins.
// Returns error if they are of different
// currencies, or if the combination would cause
// an overflow
func (c Coin) Add(o Coin) (Coin, error) {
	// If any of the coins represents no value and does not have a ticker
	// set then it has no influence on the addition result.
	if c.Ticker == "" && c.IsZero() {
		return o, nil
	}
	if o.Ticker == "" && o.IsZero() {
		return c, nil
	}
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "adding %s to %s", o.Ticker, c.Ticker)
	}

	a := c.Int()
	sum := new(uint256.Int).Add(a, o.Int())
	if sum.Lt(a) {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%s + %s", c, o)
	}
	return FromInt(sum, c.Ticker), nil
}

// Subtract given amount. Coins are never negative, subtracting more than
// available results in ErrAmount.
func (c Coin) Subtract(o Coin) (Coin, error) {
	if o.IsZero() && (o.Ticker == "" || c.SameType(o)) {
		return c, nil
	}
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "subtracting %s from %s", o.Ticker, c.Ticker)
	}
	a, b := c.Int(), o.Int()
	if a.Lt(b) {
		return Coin{}, errors.Wrapf(errors.ErrAmount, "cannot subtract %s from %s", o, c)
	}
	return FromInt(new(uint256.Int).Sub(a, b), c.Ticker), nil
}

// MulDiv returns floor(c * num / den). The intermediate product is not
// limited in size, only the result must fit.
func (c Coin) MulDiv(num, den *big.Int) (Coin, error) {
	if den.Sign() <= 0 || num.Sign() < 0 {
		return Coin{}, errors.Wrap(errors.ErrInput, "numerator must not be negative and denominator must be positive")
	}
	v := new(big.Int).Mul(c.Big(), num)
	v.Quo(v, den)
	u, overflow := uint256.FromBig(v)
	if overflow {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%s * %s / %s", c, num, den)
	}
	return FromInt(u, c.Ticker), nil
}

// Compare will check values of two coins, without
// inspecting the currency code. It is up to the caller
// to determine if they want to check this.
//
// Returns 1 if c is larger, -1 if o is larger, 0 if equal
func (c Coin) Compare(o Coin) int {
	return c.Int().Cmp(o.Int())
}

// Equals returns true if all fields are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker && c.Compare(o) == 0
}

// IsEmpty returns true on null or zero amount
func IsEmpty(c *Coin) bool {
	return c == nil || c.IsZero()
}

// IsZero returns true amounts are 0
func (c Coin) IsZero() bool {
	return c.Int().IsZero()
}

// IsPositive returns true if the value is greater than 0
func (c Coin) IsPositive() bool {
	return !c.IsZero()
}

// IsGTE returns true if c is same type and at least
// as large as o.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Compare(o) >= 0
}

// SameType returns true if they have the same currency
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Clone provides an independent copy of a coin pointer
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	cpy := Coin{Ticker: c.Ticker}
	if len(c.Units) != 0 {
		cpy.Units = append([]byte{}, c.Units...)
	}
	return &cpy
}

// Validate ensures that the coin has a valid currency code and the amount
// is correctly serialized.
func (c Coin) Validate() error {
	var err error
	if !IsCC(c.Ticker) {
		err = errors.Append(err, errors.Wrapf(errors.ErrCurrency, "invalid currency: %s", c.Ticker))
	}
	if len(c.Units) > maxUnitsLen {
		err = errors.Append(err, errors.Wrap(errors.ErrOverflow, "amount exceeds 256 bits"))
	} else if len(c.Units) > 0 && c.Units[0] == 0 {
		err = errors.Append(err, errors.Wrap(errors.ErrState, "amount not normalized"))
	}
	return err
}

// String provides a human readable representation of the coin. For a valid
// coin the result is a valid human readable format that can be parsed back.
func (c Coin) String() string {
	whole, frac := new(big.Int).QuoRem(c.Big(), unit, new(big.Int))

	var b strings.Builder
	b.WriteString(whole.String())
	if frac.Sign() != 0 {
		s := frac.String()
		// Add leading zeros to convert it to a decimal number.
		s = strings.Repeat("0", Decimals-len(s)) + s
		// Remove trailing zeros as they provide no information.
		b.WriteString("." + strings.TrimRight(s, "0"))
	}
	if c.Ticker != "" {
		b.WriteString(" " + c.Ticker)
	}
	return b.String()
}

var humanCoinFormatRx = regexp.MustCompile(`^(\d+)(?:\.(\d{1,18}))?\s*([A-Z]{3,4})$`)

// ParseHumanFormat parse a human readable coin representation. Accepted format
// is a string:
//   "<whole>[.<fractional>] <ticker>"
// Up to 18 fractional digits are accepted.
func ParseHumanFormat(h string) (Coin, error) {
	m := humanCoinFormatRx.FindStringSubmatch(strings.TrimSpace(h))
	if m == nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid coin format %q", h)
	}
	v, ok := new(big.Int).SetString(m[1], 10)
	if !ok {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid whole value %q", m[1])
	}
	v.Mul(v, unit)
	if m[2] != "" {
		frac, ok := new(big.Int).SetString(m[2]+strings.Repeat("0", Decimals-len(m[2])), 10)
		if !ok {
			return Coin{}, errors.Wrapf(errors.ErrInput, "invalid fractional value %q", m[2])
		}
		v.Add(v, frac)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%q", h)
	}
	return FromInt(u, m[3]), nil
}

// MarshalJSON serializes the coin using the human readable format.
func (c Coin) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both the human readable format and an object with
// the ticker and the amount of base units as a decimal string.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseHumanFormat(human)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var obj struct {
		Ticker string `json:"ticker"`
		Units  string `json:"units"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "invalid coin: %s", err)
	}
	v, ok := new(big.Int).SetString(obj.Units, 10)
	if !ok || v.Sign() < 0 {
		return errors.Wrapf(errors.ErrInput, "invalid units %q", obj.Units)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return errors.Wrapf(errors.ErrOverflow, "units %q", obj.Units)
	}
	*c = FromInt(u, obj.Ticker)
	return nil
}

// Set updates this coin value to what is provided. This method implements
// flag.Value interface.
func (c *Coin) Set(raw string) error {
	val, err := ParseHumanFormat(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}
