package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/geeko-me/sprouter-controller/pkg/supervisor"
)

var (
	masterURL  string
	kubeconfig = os.Getenv("KUBECONFIG")
	httpAddr   string
)

func init() {
	flag.StringVar(&masterURL, "master", masterURL, "The URL of the Kubernetes API server.")
	flag.StringVar(&kubeconfig, "kubeconfig", kubeconfig, "Path to kubeconfig file.")
	flag.StringVar(&httpAddr, "http-addr", ":8080", "Address to serve /healthz and /metrics on.")
}

func main() {
	flag.Parse()

	zapLog, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync() //nolint:errcheck
	log := zapr.NewLogger(zapLog)

	cfg, err := clientcmd.BuildConfigFromFlags(masterURL, kubeconfig)
	if err != nil {
		log.Error(err, "building kubeconfig")
		os.Exit(1)
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		log.Error(err, "create kubernetes client")
		os.Exit(1)
	}

	sup := supervisor.New(client, log, httpAddr)

	daemonCtx, cancelFn := context.WithCancel(context.Background())
	sigCh, errCh := make(chan os.Signal, 1), make(chan error, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		// the first signal cancels the context, letting watch loops
		// and the http server shut down gracefully.
		cancelFn()
		<-sigCh
		// the second signal forcibly terminates the process.
		os.Exit(1)
	}()

	if err := sup.Init(daemonCtx); err != nil {
		log.Error(err, "initial scan failed")
		os.Exit(1)
	}

	go func() {
		errCh <- sup.Run(daemonCtx)
	}()

	if err := <-errCh; err != nil && daemonCtx.Err() == nil {
		log.Error(err, "supervisor error")
		os.Exit(1)
	}
}
