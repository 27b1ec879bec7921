package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Tokyo")
	if err != nil {
		panic(err)
	}
}

// force the clock into JST because the remote host renders broadcast
// windows in japanese local time, while our servers may end up in any
// region, which skews everything derived from Year()/Month()/Day()/...
func Now() time.Time {
	return time.Now().In(Location)
}
