package eventchannel

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// Sender delivers one serialized batch to the collector.
type Sender = func(payload []byte) error

// NewHTTPSender posts batches to the collector endpoint. The body is the
// protocol version, a colon, then the JSON envelope, sent as plain text.
// Cookie handling is the client's concern; callers that need credentials
// configure the client with a jar.
func NewHTTPSender(client *http.Client, endpoint string, version int) Sender {
	prefix := strconv.Itoa(version) + ":"
	return func(payload []byte) error {
		body := strings.NewReader(prefix + string(payload))
		req, err := http.NewRequest(http.MethodPost, endpoint, body)
		if err != nil {
			glog.Error(err)
			return err
		}
		req.Header.Set("Content-Type", "text/plain")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("wrong code received %d instead of %d", resp.StatusCode, http.StatusOK)
		}
		glog.Infof("[asteriobid] sent events batch")
		return nil
	}
}
