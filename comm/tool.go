package comm

import (
	"bufio"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aaronwong1989/gosmsc/comm/logging"
)

var log = logging.GetDefaultLogger()

func LogHex(level logging.Level, model string, bts []byte) {
	msg := fmt.Sprintf("[OnTraffic] Hex %s: %x", model, bts)
	if level == logging.DebugLevel {
		log.Debugf(msg)
	} else if level == logging.ErrorLevel {
		log.Errorf(msg)
	} else if level == logging.WarnLevel {
		log.Warnf(msg)
	} else {
		log.Infof(msg)
	}
}

// RandNum 返回 [min, max) 之间的随机数，max<=min 时返回 min
func RandNum(min, max int32) int {
	if max <= min {
		return int(min)
	}
	return rand.Intn(int(max-min)) + int(min)
}

// DiceCheck 投概率骰子，得到结果比给定数字大则返回true，否则返回false
func DiceCheck(prob float64) bool {
	return float64(rand.Intn(10000))/10000.0 > prob
}

// SavePid 在程序执行的当前目录生成pid文件
func SavePid(f string) string {
	file, err := os.OpenFile(f, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	pid := fmt.Sprintf("%d", os.Getpid())
	if err != nil {
		log.Errorf("%v", err)
		return pid
	}

	writer := bufio.NewWriter(file)
	_, _ = writer.WriteString(pid)
	defer func(file *os.File, writer *bufio.Writer) {
		_ = writer.Flush()
		_ = file.Close()
	}(file, writer)

	return pid
}

// StartMonitor 在 port 上开启 pprof 与 prometheus 指标，监听请求
func StartMonitor(port int, gatherer prometheus.Gatherer) {
	http.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	go func() {
		addr := strconv.Itoa(port)
		log.Infof("[Pprof    ] http://localhost:%s/debug/pprof/", addr)
		log.Infof("[Metrics  ] http://localhost:%s/metrics", addr)
		if err := http.ListenAndServe(":"+addr, nil); err != nil {
			log.Infof("start monitor failed on %s", addr)
		}
	}()
}
