package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/clayxrex/stepperd/motor"
	"github.com/clayxrex/stepperd/motor/gpio"
)

type EnvConfig struct {
	JWT_ISSUER string `env:"STEPPERD_DEVICE_ID" envDefault:"DEV"`
	DEBUG      bool   `env:"DEBUG" envDefault:"0"`
	CONFIG     string `env:"STEPPERD_CONFIG" envDefault:"./stepperd.yaml"`
	DATADIR    string `env:"STEPPERD_DATA" envDefault:"./tmp"`

	DB        *storm.DB
	Rig       *motor.Rig
	Workers   map[string]*MotorWorker
	Simulated bool
}

var (
	ENV *EnvConfig
)

func init() {
	ENV = new(EnvConfig)
	env.Parse(ENV)
}

func openDb() {
	dbFile, err := filepath.Abs(filepath.Join(ENV.DATADIR, "stepperd.db"))
	if err != nil {
		panic(err)
	}

	dir := filepath.Dir(dbFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.Mkdir(dir, 0755)
	}

	db, err := storm.Open(dbFile)
	if err != nil {
		panic(err)
	}
	ENV.DB = db
}

func main() {
	// process flags
	simulated := flag.Bool("sim", false, "Run the rig against a simulated pin driver")
	port := flag.String("port", "0.0.0.0:8080", "Specify the ip:port to listen on")
	flag.Parse()

	openDb()
	defer ENV.DB.Close() // close database when finished

	// Read and check the rig definition before anything touches hardware
	filename, err := filepath.Abs(ENV.CONFIG)
	if err != nil {
		panic(err)
	}
	yamlFile, err := ioutil.ReadFile(filename)
	if err != nil {
		panic(fmt.Sprintf("Unable to read yaml file: %v", err))
	}

	config, err := motor.LoadRigConfig(yamlFile)
	if err != nil {
		panic(fmt.Sprintf("Unable to load rig config: %v", err))
	}

	var drv gpio.Driver
	ENV.Simulated = *simulated
	if ENV.Simulated {
		println("Creating simulated pin driver")
		drv = gpio.NewSim()
	} else {
		rpi, err := gpio.OpenRPi()
		if err != nil {
			panic(fmt.Sprintf("Unable to open gpio: %v", err))
		}
		defer rpi.Close()
		drv = rpi
	}

	ENV.Rig, err = motor.NewRig(drv, config)
	if err != nil {
		panic(fmt.Sprintf("Unable to initialize rig: %v", err))
	}

	// Each motor gets its own goroutine so a blocking pulse loop never
	// shares an execution context with unrelated work.
	ENV.Workers = make(map[string]*MotorWorker, len(ENV.Rig.Motors))
	for name, m := range ENV.Rig.Motors {
		ENV.Workers[name] = NewMotorWorker(m)
	}

	r := newRouter()

	go func() {
		log.Printf("listening on %s", *port)
		log.Fatal(http.ListenAndServe(*port, r))
	}()

	runShell()
}

func newRouter() chi.Router {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	r.Post("/login", Login)

	r.Group(func(r chi.Router) {
		r.Use(ValidateJWT)
		r.Post("/refresh", JWTRefresh)

		r.Route("/motors", func(r chi.Router) {
			r.Get("/", ListMotors)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", GetMotor)
				r.Get("/ws", PositionStreamHandler)
				r.Post("/step", StepMotor)
				r.Post("/rotate", RotateMotor)
				r.Post("/home", HomeMotor)
				r.Post("/goto", GoToPosition)
				r.Route("/presets", func(r chi.Router) {
					r.Get("/", ListPresets)
					r.Post("/", SavePreset)
					r.Post("/{preset}/goto", GoToPreset)
				})
			})
		})
	})

	return r
}

//---
// Local maintenance shell
//---

func runShell() {
	motorNames := func([]string) []string {
		return ENV.Rig.Names()
	}

	shell := ishell.New()
	shell.Println("stepperd maintenance shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "createsuperuser",
		Help: "createsuperuser <email> <password>",
		Func: func(c *ishell.Context) {
			c.ShowPrompt(false)
			defer c.ShowPrompt(true)

			var email string
			if len(c.Args) >= 1 {
				email = c.Args[0]
			} else {
				c.Print("Email: ")
				email = c.ReadLine()
			}

			var password string
			if len(c.Args) >= 2 {
				password = c.Args[1]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}

			user := &User{
				Email: email,
				Name:  email,
				Admin: true,
			}
			user.SetPassword([]byte(password))
			if err := ENV.DB.Save(user); err != nil {
				panic(err)
			}

			c.Println("Superuser created")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "step",
		Completer: motorNames,
		Help:      "step <motor> <steps> <cw|ccw> <rpm>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 4 {
				c.Err(fmt.Errorf("usage: step <motor> <steps> <cw|ccw> <rpm>"))
				return
			}

			worker, ok := ENV.Workers[c.Args[0]]
			if !ok {
				c.Err(fmt.Errorf("unable to find motor '%s'", c.Args[0]))
				return
			}
			steps, _ := strconv.Atoi(c.Args[1])
			clockwise, err := parseDirection(c.Args[2])
			if err != nil {
				c.Err(err)
				return
			}
			rpm, _ := strconv.ParseFloat(c.Args[3], 64)

			c.Printf("Stepping %s %d steps at %g rpm\n", c.Args[0], steps, rpm)
			err = worker.Do(func(m *motor.Motor) error {
				return m.Step(steps, clockwise, rpm)
			})
			if err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "home",
		Completer: motorNames,
		Help:      "home <motor>  (marks the current position as home)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: home <motor>"))
				return
			}

			worker, ok := ENV.Workers[c.Args[0]]
			if !ok {
				c.Err(fmt.Errorf("unable to find motor '%s'", c.Args[0]))
				return
			}

			worker.Do(func(m *motor.Motor) error {
				m.MarkHome()
				return nil
			})
			c.Printf("Marked home on %s\n", c.Args[0])
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "goto",
		Completer: motorNames,
		Help:      "goto <motor> <step|deg> <value> <cw|ccw> <rpm>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 5 {
				c.Err(fmt.Errorf("usage: goto <motor> <step|deg> <value> <cw|ccw> <rpm>"))
				return
			}

			worker, ok := ENV.Workers[c.Args[0]]
			if !ok {
				c.Err(fmt.Errorf("unable to find motor '%s'", c.Args[0]))
				return
			}

			var target motor.Target
			switch c.Args[1] {
			case "step":
				index, _ := strconv.Atoi(c.Args[2])
				target = motor.StepTarget(index)
			case "deg":
				degrees, _ := strconv.ParseFloat(c.Args[2], 64)
				target = motor.DegreeTarget(degrees)
			default:
				c.Err(fmt.Errorf("unknown target form '%s', want step or deg", c.Args[1]))
				return
			}

			clockwise, err := parseDirection(c.Args[3])
			if err != nil {
				c.Err(err)
				return
			}
			rpm, _ := strconv.ParseFloat(c.Args[4], 64)

			err = worker.Do(func(m *motor.Motor) error {
				return m.GoTo(clockwise, rpm, target)
			})
			if err != nil {
				c.Err(err)
				return
			}

			state := worker.State()
			c.Printf("%s is now at step %d\n", c.Args[0], state.StepsFromHome)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "position",
		Completer: motorNames,
		Help:      "position <motor>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: position <motor>"))
				return
			}

			worker, ok := ENV.Workers[c.Args[0]]
			if !ok {
				c.Err(fmt.Errorf("unable to find motor '%s'", c.Args[0]))
				return
			}

			state := worker.State()
			if !state.HomeSet {
				c.Printf("%s: home not set\n", c.Args[0])
				return
			}
			angle := float64(state.StepsFromHome) * worker.Motor.StepAngle()
			c.Printf("%s: step %d (%g degrees from home)\n", c.Args[0], state.StepsFromHome, angle)
		},
	})

	shell.Run()
}

func parseDirection(arg string) (clockwise bool, err error) {
	switch arg {
	case "cw":
		return true, nil
	case "ccw":
		return false, nil
	}
	return false, fmt.Errorf("unknown direction '%s', want cw or ccw", arg)
}
