package models

import (
	"fmt"

	"filerelay/internal/common"
)

// TransferWay is the method by which source bytes are located and pulled.
type TransferWay string

const (
	WayURL    TransferWay = "URL"
	WaySCP    TransferWay = "SCP"
	WayOSS    TransferWay = "OSS"
	WayS3     TransferWay = "S3"
	WayUpload TransferWay = "UPLOAD"
)

// wayParamKeys lists, in declared order, the request parameters each way
// needs to locate the source data. The origin string handed to the naming
// scheme is the parameter values joined with "_" in this order.
var wayParamKeys = map[TransferWay][]string{
	WayURL:    {"url"},
	WaySCP:    {"user", "hostname", "path"},
	WayOSS:    {"endpoint", "accessKeyId", "accessKeySecret", "bucketName", "objectName"},
	WayS3:     {"region", "accessKeyId", "accessKeySecret", "bucketName", "objectName"},
	WayUpload: {},
}

// ParamKeys returns the ordered request parameters required by the way.
func (w TransferWay) ParamKeys() []string {
	return wayParamKeys[w]
}

// ParseTransferWay validates a client-supplied way string.
func ParseTransferWay(s string) (TransferWay, error) {
	switch TransferWay(s) {
	case WayURL, WaySCP, WayOSS, WayS3, WayUpload:
		return TransferWay(s), nil
	}
	return "", fmt.Errorf("%w: unknown transfer way %q", common.ErrIllegalArgument, s)
}
