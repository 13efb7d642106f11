package framestream

import (
	"io/ioutil"

	"github.com/hashicorp/go-hclog"
)

func newTestLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "framestream_test",
		Level:  hclog.Trace,
		Output: ioutil.Discard,
	})
}
