package codec

import (
	"os"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// any-typed targets decode maps as map[string]any.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// StartupData is the payload of a Startup frame.
type StartupData struct {
	PID     int64  `cbor:"pid"`
	Version string `cbor:"version"`
}

// NewStartupData describes the current process.
func NewStartupData(version string) StartupData {
	return StartupData{PID: int64(os.Getpid()), Version: version}
}

// Diagnose returns the CBOR diagnostic notation of data. Useful in logs.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
