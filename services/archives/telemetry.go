package archives

import (
	"showroom-archives/lib/telemetry"
)

var tracer = telemetry.Tracer("showroom.services.archives")
