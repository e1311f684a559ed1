package bitcoin

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	ScriptItemTypeOpCode   = ScriptItemType(0x01)
	ScriptItemTypePushData = ScriptItemType(0x02)

	OP_FALSE = byte(0x00)
	OP_TRUE  = byte(0x51)

	OP_0       = byte(0x00)
	OP_1NEGATE = byte(0x4f)
	OP_1       = byte(0x51)
	OP_16      = byte(0x60)

	OP_RETURN      = byte(0x6a)
	OP_DUP         = byte(0x76)
	OP_EQUALVERIFY = byte(0x88)
	OP_HASH160     = byte(0xa9)
	OP_CHECKSIG    = byte(0xac)

	OP_NOP9  = byte(0xb8)
	OP_NOP10 = byte(0xb9)

	// Template placeholders. Swapped for real values when the template is instantiated.
	OP_PUBKEY     = byte(0xb8) // OP_NOP9
	OP_PUBKEYHASH = byte(0xb9) // OP_NOP10

	// OP_MAX_SINGLE_BYTE_PUSH_DATA is the largest push length encodable as a bare length byte.
	OP_MAX_SINGLE_BYTE_PUSH_DATA = byte(0x4b)

	OP_PUSH_DATA_1 = byte(0x4c)
	OP_PUSH_DATA_2 = byte(0x4d)
	OP_PUSH_DATA_4 = byte(0x4e)

	OP_PUSH_DATA_1_MAX = uint64(255)
	OP_PUSH_DATA_2_MAX = uint64(65535)
)

var (
	endian = binary.LittleEndian

	ErrInvalidScript         = errors.New("Invalid Script")
	ErrNotPushOp             = errors.New("Not Push Op")
	ErrUnknownScriptNumber   = errors.New("Unknown Script Number")
	ErrInvalidScriptItemType = errors.New("Invalid Script Item Type")
	ErrNumberOverRun         = errors.New("Number Overrun")
	ErrUnknownScriptTemplate = errors.New("Unknown Script Template")
	ErrNotEnoughPublicKeys   = errors.New("Not Enough Public Keys")

	opCodeNames = map[byte]string{
		OP_0:           "OP_0",
		OP_1NEGATE:     "OP_1NEGATE",
		OP_1:           "OP_1",
		OP_16:          "OP_16",
		OP_RETURN:      "OP_RETURN",
		OP_DUP:         "OP_DUP",
		OP_EQUALVERIFY: "OP_EQUALVERIFY",
		OP_HASH160:     "OP_HASH160",
		OP_CHECKSIG:    "OP_CHECKSIG",
		OP_PUBKEY:      "OP_PUBKEY",
		OP_PUBKEYHASH:  "OP_PUBKEYHASH",
	}

	opCodeValues = func() map[string]byte {
		result := make(map[string]byte, len(opCodeNames)+2)
		for code, name := range opCodeNames {
			result[name] = code
		}
		result["OP_FALSE"] = OP_FALSE
		result["OP_TRUE"] = OP_TRUE
		return result
	}()

	// PKHTemplate is the standard pay-to-public-key-hash locking script shape.
	PKHTemplate = Template{OP_DUP, OP_HASH160, OP_PUBKEYHASH, OP_EQUALVERIFY, OP_CHECKSIG}

	// PKTemplate is the standard pay-to-public-key locking script shape.
	PKTemplate = Template{OP_PUBKEY, OP_CHECKSIG}
)

type ScriptItemType uint8

// ScriptItem is one parsed element of a script: either a bare op code or a data push.
type ScriptItem struct {
	Type   ScriptItemType
	OpCode byte
	Data   []byte
}

type ScriptItems []*ScriptItem

// Script is a raw bitcoin locking or unlocking script.
type Script []byte

// Template is a locking script with placeholder op codes where public key values will be
// substituted when it is instantiated.
type Template Script

func NewOpCodeScriptItem(opCode byte) *ScriptItem {
	return &ScriptItem{Type: ScriptItemTypeOpCode, OpCode: opCode}
}

func NewPushDataScriptItem(b []byte) *ScriptItem {
	return &ScriptItem{Type: ScriptItemTypePushData, Data: b}
}

func (item ScriptItem) Equal(other ScriptItem) bool {
	return item.Type == other.Type && item.OpCode == other.OpCode &&
		bytes.Equal(item.Data, other.Data)
}

func (item ScriptItem) String() string {
	if item.Type == ScriptItemTypePushData {
		if isPrintableText(item.Data) {
			return fmt.Sprintf("\"%s\"", string(item.Data))
		}

		if value, err := ScriptNumberValue(&item); err == nil && value < 0xffff && value > -0xffff {
			return fmt.Sprintf("%d", value)
		}

		return "0x" + hex.EncodeToString(item.Data)
	}

	return OpCodeToString(item.OpCode)
}

func (item ScriptItem) Write(w io.Writer) error {
	switch item.Type {
	case ScriptItemTypeOpCode:
		_, err := w.Write([]byte{item.OpCode})
		return err

	case ScriptItemTypePushData:
		return WritePushDataScript(w, item.Data)
	}

	return errors.Wrapf(ErrInvalidScriptItemType, "%d", item.Type)
}

func (item ScriptItem) Script() (Script, error) {
	buf := &bytes.Buffer{}
	if err := item.Write(buf); err != nil {
		return nil, err
	}
	return Script(buf.Bytes()), nil
}

func (items ScriptItems) Write(w io.Writer) error {
	for i, item := range items {
		if err := item.Write(w); err != nil {
			return errors.Wrapf(err, "item %d", i)
		}
	}
	return nil
}

func (items ScriptItems) Script() (Script, error) {
	buf := &bytes.Buffer{}
	if err := items.Write(buf); err != nil {
		return nil, err
	}
	return Script(buf.Bytes()), nil
}

func (s Script) Equal(r Script) bool {
	return bytes.Equal(s, r)
}

func (s Script) Copy() Script {
	c := make(Script, len(s))
	copy(c, s)
	return c
}

func (s Script) Bytes() []byte {
	return s
}

func (s Script) String() string {
	return ScriptToString(s)
}

func (s Script) IsP2PKH() bool {
	return s.MatchesTemplate(PKHTemplate)
}

func (s Script) IsP2PK() bool {
	return s.MatchesTemplate(PKTemplate)
}

// RequiredSignatures is the number of signatures needed to satisfy the locking script. Only the
// PKH and PK templates are recognized.
func (s Script) RequiredSignatures() (uint32, error) {
	if s.IsP2PKH() || s.IsP2PK() {
		return 1, nil
	}

	return 0, ErrUnknownScriptTemplate
}

// MatchesTemplate reports whether the script has the template's shape, with each placeholder
// matched by a push of the corresponding size.
func (s Script) MatchesTemplate(template Template) bool {
	buf := bytes.NewReader(s)
	for {
		item, err := ParseScript(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return false
		}

		if len(template) == 0 {
			return false
		}
		expected := template[0]
		template = template[1:]

		switch expected {
		case OP_PUBKEYHASH:
			if item.Type != ScriptItemTypePushData || len(item.Data) != Hash20Size {
				return false
			}
		case OP_PUBKEY:
			if item.Type != ScriptItemTypePushData || len(item.Data) != PublicKeyCompressedLength {
				return false
			}
		default:
			if item.OpCode != expected {
				return false
			}
		}
	}

	return len(template) == 0
}

// PubKeyCount returns the number of pushed values with the size of a public key hash or a
// compressed public key.
func (s Script) PubKeyCount() uint32 {
	buf := bytes.NewReader(s)
	result := uint32(0)
	for {
		item, err := ParseScript(buf)
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0
		}

		if item.Type != ScriptItemTypePushData {
			continue
		}
		if l := len(item.Data); l == Hash20Size || l == PublicKeyCompressedLength {
			result++
		}
	}

	return result
}

// MarshalText implements encoding.TextMarshaler.
func (s Script) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Script) UnmarshalText(text []byte) error {
	script, err := StringToScript(string(text))
	if err != nil {
		return err
	}

	*s = script
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Script) MarshalBinary() ([]byte, error) {
	return s.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Script) UnmarshalBinary(data []byte) error {
	*s = make(Script, len(data))
	copy(*s, data)
	return nil
}

// MarshalJSON encodes the raw script bytes as hex.
func (s Script) MarshalJSON() ([]byte, error) {
	return []byte("\"" + hex.EncodeToString(s) + "\""), nil
}

// UnmarshalJSON decodes hex encoded raw script bytes.
func (s *Script) UnmarshalJSON(data []byte) error {
	l := len(data)
	if l < 2 {
		return fmt.Errorf("Too short for Script hex data : %d", l)
	}
	if l == 2 {
		*s = nil
		return nil
	}

	raw, err := hex.DecodeString(string(data[1 : l-1]))
	if err != nil {
		return err
	}

	*s = raw
	return nil
}

// PushDataScriptSize returns the op codes that prefix a push of the specified size.
func PushDataScriptSize(size uint64) []byte {
	switch {
	case size <= uint64(OP_MAX_SINGLE_BYTE_PUSH_DATA):
		return []byte{byte(size)}
	case size <= OP_PUSH_DATA_1_MAX:
		return []byte{OP_PUSH_DATA_1, byte(size)}
	case size <= OP_PUSH_DATA_2_MAX:
		result := []byte{OP_PUSH_DATA_2, 0, 0}
		endian.PutUint16(result[1:], uint16(size))
		return result
	}

	result := []byte{OP_PUSH_DATA_4, 0, 0, 0, 0}
	endian.PutUint32(result[1:], uint32(size))
	return result
}

// WritePushDataScript writes a data push with its size prefix.
func WritePushDataScript(w io.Writer, data []byte) error {
	if _, err := w.Write(PushDataScriptSize(uint64(len(data)))); err != nil {
		return err
	}

	_, err := w.Write(data)
	return err
}

// readPushDataLength reads the push length that follows a push data op code. The second return
// is false when the op code doesn't introduce a push.
func readPushDataLength(buf io.Reader, opCode byte) (int, bool, error) {
	if opCode <= OP_MAX_SINGLE_BYTE_PUSH_DATA {
		return int(opCode), true, nil
	}

	switch opCode {
	case OP_PUSH_DATA_1:
		var size uint8
		if err := binary.Read(buf, endian, &size); err != nil {
			return 0, true, err
		}
		return int(size), true, nil
	case OP_PUSH_DATA_2:
		var size uint16
		if err := binary.Read(buf, endian, &size); err != nil {
			return 0, true, err
		}
		return int(size), true, nil
	case OP_PUSH_DATA_4:
		var size uint32
		if err := binary.Read(buf, endian, &size); err != nil {
			return 0, true, err
		}
		return int(size), true, nil
	}

	return 0, false, nil
}

// ParseScript parses the next item of a script. A bytes.Reader is required so the push size can
// be checked against the remaining length before allocating memory for it.
func ParseScript(buf *bytes.Reader) (*ScriptItem, error) {
	opCode, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}

	if opCode == OP_FALSE || (opCode >= OP_1 && opCode <= OP_16) || opCode == OP_1NEGATE {
		return NewOpCodeScriptItem(opCode), nil
	}

	dataSize, isPush, err := readPushDataLength(buf, opCode)
	if err != nil {
		return nil, err
	}
	if !isPush {
		return NewOpCodeScriptItem(opCode), nil
	}

	if dataSize == 0 {
		return &ScriptItem{Type: ScriptItemTypePushData, OpCode: opCode}, nil
	}
	if dataSize > buf.Len() {
		return nil, errors.Wrapf(ErrInvalidScript, "push data size past end of script : %d/%d",
			dataSize, buf.Len())
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(buf, data); err != nil {
		return nil, err
	}

	return &ScriptItem{Type: ScriptItemTypePushData, OpCode: opCode, Data: data}, nil
}

// ParseScriptItems parses count items, or all remaining items when count is -1.
func ParseScriptItems(buf *bytes.Reader, count int) (ScriptItems, error) {
	var result ScriptItems
	for i := 0; count == -1 && buf.Len() > 0 || i < count; i++ {
		item, err := ParseScript(buf)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		result = append(result, item)
	}

	return result, nil
}

// ParsePushDataScriptSize parses a push data size prefix and returns the size.
func ParsePushDataScriptSize(buf io.Reader) (uint64, error) {
	var opCode [1]byte
	if _, err := io.ReadFull(buf, opCode[:]); err != nil {
		return 0, err
	}

	size, isPush, err := readPushDataLength(buf, opCode[0])
	if err != nil {
		return 0, err
	}
	if !isPush {
		return 0, errors.Wrapf(ErrNotPushOp, "op code : 0x%02x", opCode[0])
	}

	return uint64(size), nil
}

// ParsePushDataScript parses the next item of a script, returning the op code and, for push
// items and small number op codes, the pushed value.
func ParsePushDataScript(buf *bytes.Reader) (uint8, []byte, error) {
	opCode, err := buf.ReadByte()
	if err != nil {
		return 0, nil, err
	}

	switch {
	case opCode == OP_FALSE:
		return opCode, nil, nil
	case opCode >= OP_1 && opCode <= OP_16:
		return opCode, []byte{opCode - OP_1 + 1}, nil
	case opCode == OP_1NEGATE:
		return opCode, []byte{0xff}, nil
	}

	dataSize, isPush, err := readPushDataLength(buf, opCode)
	if err != nil {
		return 0, nil, err
	}
	if !isPush {
		return opCode, nil, ErrNotPushOp
	}

	if dataSize == 0 {
		return opCode, nil, nil
	}
	if dataSize > buf.Len() {
		return 0, nil, errors.Wrapf(ErrInvalidScript, "push data size past end of script : %d/%d",
			dataSize, buf.Len())
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(buf, data); err != nil {
		return 0, nil, err
	}

	return opCode, data, nil
}

// PushNumberScriptItem returns the item that pushes the specified number onto the stack using
// the minimal encoding.
func PushNumberScriptItem(n int64) *ScriptItem {
	switch {
	case n == 0:
		return NewOpCodeScriptItem(OP_0)
	case n == -1:
		return NewOpCodeScriptItem(OP_1NEGATE)
	case n > 0 && n <= 16:
		return NewOpCodeScriptItem(0x50 + byte(n))
	}

	isNegative := n < 0
	if isNegative {
		n = -n
	}

	// Little endian with the high bit of the last byte as the sign.
	data := make([]byte, 0, 9)
	for n > 0 {
		data = append(data, byte(n&0xff))
		n >>= 8
	}

	if data[len(data)-1]&0x80 != 0 {
		sign := byte(0x00)
		if isNegative {
			sign = 0x80
		}
		data = append(data, sign)
	} else if isNegative {
		data[len(data)-1] |= 0x80
	}

	return NewPushDataScriptItem(data)
}

// ScriptNumberValue returns the number encoded by an item returned from ParseScript.
func ScriptNumberValue(item *ScriptItem) (int64, error) {
	if item.Type == ScriptItemTypePushData {
		return DecodeScriptLittleEndian(item.Data)
	}

	switch {
	case item.OpCode >= OP_1 && item.OpCode <= OP_16:
		return int64(item.OpCode - 0x50), nil
	case item.OpCode == OP_FALSE:
		return 0, nil
	case item.OpCode == OP_1NEGATE:
		return -1, nil
	}

	return 0, errors.Wrapf(ErrUnknownScriptNumber, "op code : %s",
		OpCodeToString(item.OpCode))
}

// DecodeScriptLittleEndian decodes a script number: little endian with the high bit of the last
// byte as the sign.
func DecodeScriptLittleEndian(b []byte) (int64, error) {
	if len(b) > 8 {
		return 0, errors.Wrapf(ErrNumberOverRun, "%d bytes doesn't fit in int64", len(b))
	}
	if len(b) == 0 {
		return 0, nil
	}

	var result int64
	for i, val := range b {
		result |= int64(val) << uint8(8*i)
	}

	if b[len(b)-1]&0x80 != 0 {
		result &= ^(int64(0x80) << uint8(8*(len(b)-1)))
		result = -result
	}

	return result, nil
}

// PubKeyFromP2PKHSigScript extracts the public key from a P2PKH unlocking script.
func PubKeyFromP2PKHSigScript(script []byte) ([]byte, error) {
	buf := bytes.NewReader(script)

	_, signature, err := ParsePushDataScript(buf)
	if err != nil {
		return nil, err
	}
	if len(signature) == 0 {
		return nil, ErrNotP2PKH
	}

	_, publicKey, err := ParsePushDataScript(buf)
	if err != nil {
		return nil, err
	}
	if len(publicKey) == 0 {
		return nil, ErrNotP2PKH
	}

	return publicKey, nil
}

func OpCodeToString(opCode byte) string {
	if name, exists := opCodeNames[opCode]; exists {
		return name
	}

	return fmt.Sprintf("{0x%02x}", opCode)
}

// ScriptToString converts a script into its text representation.
func ScriptToString(script Script) string {
	var parts []string
	buf := bytes.NewReader(script)

	for {
		item, err := ParseScript(buf)
		if err != nil {
			if err == io.EOF {
				break
			}
			continue
		}

		parts = append(parts, item.String())
	}

	return strings.Join(parts, " ")
}

// StringToScript converts the text representation of a script back to script bytes. Parts are op
// code names, 0x-prefixed hex pushes, quoted text pushes, or decimal numbers.
func StringToScript(text string) (Script, error) {
	buf := &bytes.Buffer{}

	var pendingQuote string
	for _, part := range strings.Fields(text) {
		if len(pendingQuote) > 0 {
			part = pendingQuote + " " + part
			if part[len(part)-1] != '"' {
				pendingQuote = part
				continue
			}
			pendingQuote = ""
		} else if part[0] == '"' && part[len(part)-1] != '"' {
			pendingQuote = part
			continue
		}

		if strings.HasPrefix(part, "OP_") {
			if opCode, exists := opCodeValues[part]; exists {
				buf.WriteByte(opCode)
				continue
			}
		}

		if strings.HasPrefix(part, "0x") {
			b, err := hex.DecodeString(part[2:])
			if err != nil {
				return nil, errors.Wrapf(err, "decode push data hex : %s", part[2:])
			}
			if err := WritePushDataScript(buf, b); err != nil {
				return nil, err
			}
			continue
		}

		if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
			if err := WritePushDataScript(buf, []byte(part[1:len(part)-1])); err != nil {
				return nil, err
			}
			continue
		}

		if n, err := strconv.ParseInt(part, 10, 64); err == nil {
			if err := PushNumberScriptItem(n).Write(buf); err != nil {
				return nil, err
			}
			continue
		}

		return nil, errors.Wrapf(ErrInvalidScript, "unknown script part : %s", part)
	}

	return Script(buf.Bytes()), nil
}

// isPrintableText returns true if the bytes are at least two characters of letters, digits, and
// spaces containing at least one letter.
func isPrintableText(bs []byte) bool {
	if len(bs) < 2 {
		return false
	}

	hasLetter := false
	for _, b := range bs {
		switch {
		case (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z'):
			hasLetter = true
		case b >= '0' && b <= '9', b == ' ':
		default:
			return false
		}
	}

	return hasLetter
}

// PKHLockingScript builds a standard P2PKH locking script from a public key hash.
func PKHLockingScript(hash Hash20) (Script, error) {
	return ScriptItems{
		NewOpCodeScriptItem(OP_DUP),
		NewOpCodeScriptItem(OP_HASH160),
		NewPushDataScriptItem(hash.Bytes()),
		NewOpCodeScriptItem(OP_EQUALVERIFY),
		NewOpCodeScriptItem(OP_CHECKSIG),
	}.Script()
}

// LockingScript substitutes public key values into the template's placeholders.
func (t Template) LockingScript(publicKeys []PublicKey) (Script, error) {
	result := &bytes.Buffer{}
	buf := bytes.NewReader(t)
	pubKeyIndex := 0

	for {
		item, err := ParseScript(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse template")
		}

		if item.Type == ScriptItemTypePushData {
			if err := WritePushDataScript(result, item.Data); err != nil {
				return nil, err
			}
			continue
		}

		switch item.OpCode {
		case OP_PUBKEY:
			if pubKeyIndex >= len(publicKeys) {
				return nil, ErrNotEnoughPublicKeys
			}
			if err := WritePushDataScript(result, publicKeys[pubKeyIndex].Bytes()); err != nil {
				return nil, err
			}
			pubKeyIndex++

		case OP_PUBKEYHASH:
			if pubKeyIndex >= len(publicKeys) {
				return nil, ErrNotEnoughPublicKeys
			}
			if err := WritePushDataScript(result,
				Hash160(publicKeys[pubKeyIndex].Bytes())); err != nil {
				return nil, err
			}
			pubKeyIndex++

		default:
			if err := result.WriteByte(item.OpCode); err != nil {
				return nil, err
			}
		}
	}

	return Script(result.Bytes()), nil
}

func (t Template) String() string {
	return ScriptToString(Script(t))
}

func (t Template) Bytes() []byte {
	return t
}
