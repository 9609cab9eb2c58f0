package logger

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

var (
	isDebug = false

	CritColor    = color.RGB(255, 0, 0).SprintFunc()
	DebugColor   = color.RGB(255, 165, 0).SprintFunc()
	WarningColor = color.RGB(255, 255, 0).SprintFunc()
	EventColor   = color.RGB(0, 255, 0).SprintFunc()
)

type (
	Config struct {
		Logging *struct {
			// write logs to a file as well as stdout
			Enabled bool `yaml:"enabled"`
			// defaults to "./log"
			Directory string `yaml:"directory"`
			// time layout used in the file name
			FilenameFormat string `yaml:"filename_format"`
		} `yaml:"logging"`

		Color *struct {
			NoColor bool `yaml:"no_color"`

			Crit    ColorConf `yaml:"crit"`
			Debug   ColorConf `yaml:"debug"`
			Warning ColorConf `yaml:"warning"`
			Event   ColorConf `yaml:"event"`
		} `yaml:"color"`
	}

	ColorConf struct {
		Enabled bool    `yaml:"enabled"`
		Rgb     *[3]int `yaml:"rgb"`
	}
)

// InitLogger configures the std logger. The returned file, if any, must be
// closed by the caller on shutdown.
func InitLogger(debug bool, cnf *Config) *os.File {
	isDebug = debug
	color.NoColor = true

	log.SetPrefix("[APP] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lmsgprefix)

	if cnf == nil {
		return nil
	}

	if cnf.Color != nil && !cnf.Color.NoColor {
		color.NoColor = false

		setColorCnf := func(cData ColorConf, globColor *func(a ...interface{}) string) {
			if !cData.Enabled {
				d := new(color.Color)
				d.DisableColor()
				*globColor = d.SprintFunc()
				return
			}
			if cData.Rgb != nil {
				*globColor = color.RGB((*cData.Rgb)[0], (*cData.Rgb)[1], (*cData.Rgb)[2]).SprintFunc()
			}
		}

		setColorCnf(cnf.Color.Crit, &CritColor)
		setColorCnf(cnf.Color.Debug, &DebugColor)
		setColorCnf(cnf.Color.Warning, &WarningColor)
		setColorCnf(cnf.Color.Event, &EventColor)
	}

	if cnf.Logging != nil && cnf.Logging.Enabled {
		if cnf.Logging.Directory == "" {
			cnf.Logging.Directory = "./log"
		}
		if cnf.Logging.FilenameFormat == "" {
			cnf.Logging.FilenameFormat = "app"
		}

		if err := os.MkdirAll(cnf.Logging.Directory, 0755); err != nil {
			Warning("Cannot create log directory, logs are not saved:", err)
			return nil
		}

		fileName := filepath.Join(cnf.Logging.Directory, time.Now().Format(cnf.Logging.FilenameFormat)+".log")

		logFile, err := os.OpenFile(fileName, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			Warning("Cannot open log file, logs are not saved:", err)
			return nil
		}
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))

		return logFile
	}

	return nil
}

func Info(v ...interface{}) {
	log.Print("[INFO] ", fmt.Sprintln(v...))
}

func Event(v ...interface{}) {
	log.Print(EventColor("[EVENT] ", fmt.Sprintln(v...)))
}

func Warning(v ...interface{}) {
	log.Print(WarningColor("[WARNING] ", fmt.Sprintln(v...)))
}

// Debug prints strings as is and everything else as indented json.
func Debug(v ...interface{}) {
	if !isDebug {
		return
	}

	message := new(bytes.Buffer)
	for _, str := range v {
		if s, ok := str.(string); ok {
			_, _ = fmt.Fprintf(message, "%s ", s)
			continue
		}
		if err, ok := str.(error); ok {
			_, _ = fmt.Fprintf(message, "%s ", err.Error())
			continue
		}
		s, _ := json.MarshalIndent(str, "", " ")
		_, _ = fmt.Fprintf(message, "%s ", string(s))
	}

	log.Print(DebugColor("[DEBUG] ", message))
}

func Crit(v ...interface{}) {
	log.Print(CritColor("Critical error: ", fmt.Sprintln(v...)))
	time.Sleep(time.Second)
	os.Exit(1)
}
