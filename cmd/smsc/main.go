package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aaronwong1989/gosmsc/comm"
	"github.com/aaronwong1989/gosmsc/comm/logging"
	"github.com/aaronwong1989/gosmsc/comm/metrics"
	"github.com/aaronwong1989/gosmsc/smsc"
)

var log = logging.GetDefaultLogger()

func main() {
	var path string
	flag.StringVar(&path, "conf", "", "--conf smsc.yaml, default $SMSC_CONF_PATH")
	flag.Parse()
	defer logging.Cleanup()

	conf, err := smsc.LoadConfig(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Infof("current pid is %s.", comm.SavePid("smsc.pid"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sink := smsc.MultiSink{smsc.NewLogSink(log), metrics.NewSink(reg)}
	if conf.MonitorPort > 0 {
		comm.StartMonitor(conf.MonitorPort, reg)
	}

	server, err := smsc.NewServer(conf, sink)
	if err != nil {
		log.Fatalf("create server: %v", err)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		log.Warnf("[%-9s] received %v, shutting down ...", "Signal", s)
		ctx, cancel := context.WithTimeout(context.Background(), conf.ResponseTimeout+time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	err = server.Run()
	log.Infof("server exits with: %v", err)
}
