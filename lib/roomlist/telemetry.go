package roomlist

import (
	"showroom-archives/lib/restyutil"
	"showroom-archives/lib/telemetry"
)

var tracer = telemetry.Tracer("showroom.lib.roomlist")

var restyInstrumentOutput restyutil.InstrumentOutput

// must be called before NewLoader to take effect
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}
