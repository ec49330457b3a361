package main

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/asdine/storm/v3"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/clayxrex/stepperd/motor"
	"github.com/clayxrex/stepperd/motor/gpio"
)

const testRigYaml = `
version: "1.0.0"
motors:
  turntable:
    enable: 17
    direction: 27
    pulse: 22
    steps_per_revolution: 200
    max_rpm: 630
`

func createTestEnv() (sim *gpio.Sim, cleanup func()) {
	dir, err := ioutil.TempDir("", "stepperd")
	if err != nil {
		panic(err)
	}

	db, err := storm.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		panic(err)
	}

	config, err := motor.LoadRigConfig([]byte(testRigYaml))
	if err != nil {
		panic(err)
	}

	sim = gpio.NewSim()
	rig, err := motor.NewRig(sim, config)
	if err != nil {
		panic(err)
	}

	workers := make(map[string]*MotorWorker, len(rig.Motors))
	for name, m := range rig.Motors {
		workers[name] = NewMotorWorker(m)
	}

	ENV = &EnvConfig{
		JWT_ISSUER: "TEST",
		DB:         db,
		Rig:        rig,
		Workers:    workers,
	}

	return sim, func() {
		db.Close()
		os.RemoveAll(dir)
	}
}

func jsonRequest(ts *httptest.Server, method, path, token string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		panic(err)
	}
	return resp
}

func decodeMotor(resp *http.Response) (mr MotorResponse) {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		panic(err)
	}
	return
}

func TestAPI(t *testing.T) {
	Convey("given a simulated rig behind the router", t, func() {
		sim, cleanup := createTestEnv()
		defer cleanup()

		user := &User{Email: "op@example.com", Name: "op"}
		user.SetPassword([]byte("hunter2"))
		So(ENV.DB.Save(user), ShouldBeNil)

		ts := httptest.NewServer(newRouter())
		defer ts.Close()

		Convey("requests without a token are unauthorized", func() {
			resp := jsonRequest(ts, "GET", "/motors", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("login with a bad password is denied", func() {
			resp := jsonRequest(ts, "POST", "/login", "", LoginPayload{Email: "op@example.com", Password: "wrong"})
			So(resp.StatusCode, ShouldEqual, http.StatusForbidden)
		})

		Convey("login with the right password returns a token", func() {
			resp := jsonRequest(ts, "POST", "/login", "", LoginPayload{Email: "op@example.com", Password: "hunter2"})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var payload JWTPayload
			So(json.NewDecoder(resp.Body).Decode(&payload), ShouldBeNil)
			resp.Body.Close()
			token := payload.SignedToken
			So(token, ShouldNotBeEmpty)

			Convey("motors are listed", func() {
				resp := jsonRequest(ts, "GET", "/motors", token, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var motors []MotorResponse
				So(json.NewDecoder(resp.Body).Decode(&motors), ShouldBeNil)
				resp.Body.Close()
				So(motors, ShouldHaveLength, 1)
				So(motors[0].Name, ShouldEqual, "turntable")
				So(motors[0].StepsPerRev, ShouldEqual, 200)
				So(*motors[0].MaxRPM, ShouldEqual, 630)
				So(motors[0].State.HomeSet, ShouldBeFalse)
			})

			Convey("an unknown motor is a 404", func() {
				resp := jsonRequest(ts, "GET", "/motors/conveyor", token, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})

			Convey("stepping emits pulses and reports the new state", func() {
				resp := jsonRequest(ts, "POST", "/motors/turntable/home", token, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				resp = jsonRequest(ts, "POST", "/motors/turntable/step", token,
					StepPayload{MotionPayload: MotionPayload{Clockwise: true, RPM: 600}, Steps: 10})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				mr := decodeMotor(resp)
				So(mr.State.StepsFromHome, ShouldEqual, 10)
				So(sim.PulseCount(22), ShouldEqual, 10)
			})

			Convey("a motion beyond max rpm is refused", func() {
				resp := jsonRequest(ts, "POST", "/motors/turntable/step", token,
					StepPayload{MotionPayload: MotionPayload{Clockwise: true, RPM: 700}, Steps: 10})
				So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
				So(sim.PulseCount(22), ShouldEqual, 0)
			})

			Convey("absolute positioning before home is refused", func() {
				index := 50
				resp := jsonRequest(ts, "POST", "/motors/turntable/goto", token,
					GoToPayload{MotionPayload: MotionPayload{Clockwise: true, RPM: 600}, StepIndex: &index})
				So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
			})

			Convey("goto after homing reaches the target", func() {
				resp := jsonRequest(ts, "POST", "/motors/turntable/home", token, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				index := 50
				resp = jsonRequest(ts, "POST", "/motors/turntable/goto", token,
					GoToPayload{MotionPayload: MotionPayload{Clockwise: true, RPM: 600}, StepIndex: &index})
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				mr := decodeMotor(resp)
				So(mr.State.StepsFromHome, ShouldEqual, 50)

				Convey("presets round trip through the store", func() {
					resp := jsonRequest(ts, "POST", "/motors/turntable/presets", token,
						PresetPayload{Name: "load"})
					So(resp.StatusCode, ShouldEqual, http.StatusCreated)

					var preset Preset
					So(json.NewDecoder(resp.Body).Decode(&preset), ShouldBeNil)
					resp.Body.Close()
					So(preset.StepIndex, ShouldEqual, 50)

					resp = jsonRequest(ts, "POST", "/motors/turntable/step", token,
						StepPayload{MotionPayload: MotionPayload{Clockwise: true, RPM: 600}, Steps: 25})
					So(resp.StatusCode, ShouldEqual, http.StatusOK)

					resp = jsonRequest(ts, "POST", "/motors/turntable/presets/load/goto", token,
						MotionPayload{Clockwise: false, RPM: 600})
					So(resp.StatusCode, ShouldEqual, http.StatusOK)

					mr := decodeMotor(resp)
					So(mr.State.StepsFromHome, ShouldEqual, 50)
				})
			})
		})
	})
}
