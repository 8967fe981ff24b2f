package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Application struct {
	Storage  Storage  `koanf:"storage"`
	Report   Report   `koanf:"report"`
	Server   Server   `koanf:"server"`
	Log      Log      `koanf:"log"`
	Database Database `koanf:"db"`
}

type Storage struct {
	Backend string `koanf:"backend"`
	File    string `koanf:"file"`
}

type Report struct {
	Dir    string `koanf:"dir"`
	Format string `koanf:"format"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

type Log struct {
	Level string `koanf:"level"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func Defaults() Application {
	return Application{
		Storage: Storage{
			Backend: BackendFile,
			File:    "events.json",
		},
		Report: Report{
			Dir:    ".",
			Format: "text",
		},
		Server: Server{
			Addr: ":8181",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "scheduler",
			Name:   "scheduler",
			Schema: "scheduler",
		},
	}
}

// Load layers defaults, the YAML file at path (optional) and SCHEDULER_*
// environment variables, in that order.
func Load(path string) (Application, error) {
	var k = koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Debugf("Loaded configuration from file: %s", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: "SCHEDULER_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "SCHEDULER_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	return app, nil
}
