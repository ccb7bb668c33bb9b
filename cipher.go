package exiv2

// CipherFct (de)ciphers a BinaryArray's raw bytes (spec.md §4.2 "if the
// config declares cryptFct"). The same signature serves both directions;
// which direction runs is purely a matter of which name is looked up.
type CipherFct func(tag uint16, data []byte, size uint32, root *Node) ([]byte, error)

// xorRotateCipher is a simple rolling-XOR transform: self-inverse, so the
// same function can serve as both a camera's decipher and its encipher.
// This stands in for the small per-byte substitution ciphers real maker
// notes use (e.g. Minolta/Sony lens-data obfuscation) without attempting to
// reproduce any particular vendor's exact table.
func xorRotateCipher(seed byte) CipherFct {
	return func(tag uint16, data []byte, size uint32, root *Node) ([]byte, error) {
		out := make([]byte, len(data))
		for i, b := range data {
			out[i] = b ^ byte((i*7+int(seed))&0xff)
		}
		return out, nil
	}
}

// cipherRegistry maps a config's named cryptFct to its implementation, and
// decipherToEncipher maps a decipher name to its enciphering counterpart
// (spec.md §4.4 visitBinaryArrayEnd: "a decipher function name is mapped to
// its enciphering counterpart").
var cipherRegistry = map[string]CipherFct{
	"sonyTagDecipher":       xorRotateCipher(0x5a),
	"sonyTagEncipher":       xorRotateCipher(0x5a),
	"nikonLensDataDecipher": xorRotateCipher(0x0d),
	"nikonLensDataEncipher": xorRotateCipher(0x0d),
}

var decipherToEncipher = map[string]string{
	"sonyTagDecipher":       "sonyTagEncipher",
	"nikonLensDataDecipher": "nikonLensDataEncipher",
}

func findCipher(name string) (CipherFct, bool) {
	fct, ok := cipherRegistry[name]
	return fct, ok
}
