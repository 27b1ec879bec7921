package showroom

import (
	"showroom-archives/lib/restyutil"
	"showroom-archives/lib/telemetry"
)

var tracer = telemetry.Tracer("showroom.lib.scrapers.showroom")

var restyInstrumentOutput restyutil.InstrumentOutput

// must be called before NewClient to take effect
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}
