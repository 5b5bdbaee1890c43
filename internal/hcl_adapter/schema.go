package hcl_adapter

import (
	"fmt"
	"time"

	"github.com/specialistvlad/eonc/internal/config"
)

// fileRoot mirrors the layout of an eonc.hcl file:
//
//	log_level  = "debug"
//	log_format = "text"
//
//	server {
//	  addr            = env.EONC_ADDR
//	  allowed_origins = ["http://localhost:5173"]
//	}
//
//	cache { size = 512 }
//
//	publisher {
//	  url       = "http://localhost:3000/socket.io/"
//	  namespace = "/"
//	  event     = "topology"
//	  timeout   = "10s"
//	}
//
//	watch { interval = "500ms" }
type fileRoot struct {
	LogLevel  *string         `hcl:"log_level,optional"`
	LogFormat *string         `hcl:"log_format,optional"`
	Server    *serverBlock    `hcl:"server,block"`
	Cache     *cacheBlock     `hcl:"cache,block"`
	Publisher *publisherBlock `hcl:"publisher,block"`
	Watch     *watchBlock     `hcl:"watch,block"`
}

type serverBlock struct {
	Addr           *string  `hcl:"addr,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
}

type cacheBlock struct {
	Size *int `hcl:"size,optional"`
}

type publisherBlock struct {
	URL                *string `hcl:"url,optional"`
	Namespace          *string `hcl:"namespace,optional"`
	Event              *string `hcl:"event,optional"`
	Timeout            *string `hcl:"timeout,optional"`
	InsecureSkipVerify *bool   `hcl:"insecure_skip_verify,optional"`
}

type watchBlock struct {
	Interval *string `hcl:"interval,optional"`
}

// translate converts the decoded HCL structs into the format-agnostic model.
func translate(root *fileRoot) (*config.Model, error) {
	m := &config.Model{
		LogLevel:  root.LogLevel,
		LogFormat: root.LogFormat,
	}
	if s := root.Server; s != nil {
		m.Server = &config.Server{Addr: s.Addr, AllowedOrigins: s.AllowedOrigins}
	}
	if c := root.Cache; c != nil {
		m.Cache = &config.Cache{Size: c.Size}
	}
	if p := root.Publisher; p != nil {
		timeout, err := duration("publisher.timeout", p.Timeout)
		if err != nil {
			return nil, err
		}
		m.Publisher = &config.Publisher{
			URL:                p.URL,
			Namespace:          p.Namespace,
			Event:              p.Event,
			Timeout:            timeout,
			InsecureSkipVerify: p.InsecureSkipVerify,
		}
	}
	if w := root.Watch; w != nil {
		interval, err := duration("watch.interval", w.Interval)
		if err != nil {
			return nil, err
		}
		m.Watch = &config.Watch{Interval: interval}
	}
	return m, nil
}

func duration(name string, raw *string) (*time.Duration, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &d, nil
}
