package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/RichardKnop/machinery/v1"
	marchineryConfig "github.com/RichardKnop/machinery/v1/config"
	marchineryLog "github.com/RichardKnop/machinery/v1/log"
	"github.com/bwmarrin/discordgo"
	"github.com/emicklei/go-restful"
	"github.com/getsentry/raven-go"
	"github.com/go-redis/redis"
	"github.com/kz/discordrus"
	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/helpers"
	"github.com/lunchcrew/lunchbot/logging"
	"github.com/lunchcrew/lunchbot/metrics"
	"github.com/lunchcrew/lunchbot/migrations"
	"github.com/lunchcrew/lunchbot/modules/plugins/lunch"
	"github.com/lunchcrew/lunchbot/rest"
	"github.com/lunchcrew/lunchbot/version"
	"github.com/sirupsen/logrus"
)

var (
	BotRuntimeChannel chan os.Signal
)

// Entrypoint
func main() {
	var err error

	log := logrus.New()
	log.Out = os.Stdout
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339}
	log.Hooks = make(logrus.LevelHooks)
	cache.SetLogger(log)

	// Read config
	helpers.LoadConfig("config.json")
	config := helpers.GetConfig()

	// Check if the bot is being debugged
	if debug, ok := config.Path("debug").Data().(bool); ok && debug {
		helpers.DEBUG_MODE = true
	}

	if helpers.ConfigString("logging.jsonfile") != "" {
		fileHook, err := logging.NewLogrusFileHook(helpers.ConfigString("logging.jsonfile"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			log.WithField("module", "launcher").Error("logrus file hook failed, err:", err.Error())
		} else {
			log.Hooks.Add(fileHook)
		}
	}

	if helpers.ConfigString("logging.discord_webhook") != "" {
		log.Hooks.Add(discordrus.NewHook(
			helpers.ConfigString("logging.discord_webhook"),
			logrus.ErrorLevel,
			&discordrus.Opts{
				Username:           "Logging",
				DisableTimestamp:   false,
				TimestampFormat:    "Jan 2 15:04:05.00000",
				EnableCustomColors: true,
				CustomLevelColors: &discordrus.LevelColors{
					Error: 13631488,
					Panic: 13631488,
					Fatal: 13631488,
				},
			},
		))
	}

	log.WithField("module", "launcher").Info("Booting lunchbot...")

	// Warn about missing config keys, but keep booting
	helpers.ValidateConfig()

	// Show version
	version.DumpInfo()

	// Start metric server
	metrics.Init()

	// Make the randomness more random
	rand.Seed(time.Now().UTC().UnixNano())

	// Call home
	if helpers.ConfigString("sentry") != "" {
		log.WithField("module", "launcher").Info("[SENTRY] Calling home...")
		err = raven.SetDSN(helpers.ConfigString("sentry"))
		if err != nil {
			panic(err)
		}
		if version.BOT_VERSION != "UNSET" {
			raven.SetRelease(version.BOT_VERSION)
		}
		log.WithField("module", "launcher").Info("[SENTRY] Someone picked up the phone \\^-^/")
	}

	// Connect to DB
	log.WithField("module", "launcher").Info("Opening database connection...")
	helpers.ConnectMDB(
		helpers.ConfigString("mongodb.url"),
		helpers.ConfigString("mongodb.db"),
	)

	// Close DB when main dies
	defer helpers.GetMDbSession().Close()

	// Run migrations
	migrations.Run()

	// Connecting to redis
	log.WithField("module", "launcher").Info("Connecting to redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     helpers.ConfigString("redis.address"),
		Password: "", // no password set
		DB:       0,  // use default DB
	})
	cache.SetRedisClient(redisClient)

	// Connect and add event handlers
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		pc, file, line, _ := runtime.Caller(caller)

		files := strings.Split(file, "/")
		file = files[len(files)-1]

		name := runtime.FuncForPC(pc).Name()
		fns := strings.Split(name, ".")
		name = fns[len(fns)-1]

		msg := format
		if strings.Contains(msg, "%") {
			msg = fmt.Sprintf(format, a...)
		}

		switch msgL {
		case discordgo.LogError:
			log.WithField("module", "discordgo").Errorf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogWarning:
			log.WithField("module", "discordgo").Warnf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogInformational:
			log.WithField("module", "discordgo").Infof("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogDebug:
			log.WithField("module", "discordgo").Debugf("%s:%d:%s() %s", file, line, name, msg)
		}
	}
	log.WithField("module", "launcher").Info("Connecting lunchbot to discord...")
	discord, err := discordgo.New("Bot " + helpers.ConfigString("discord.token"))
	if err != nil {
		panic(err)
	}

	discord.Lock()
	discord.Debug = false
	discord.LogLevel = discordgo.LogInformational
	discord.StateEnabled = true
	discord.Unlock()

	discord.AddHandler(BotOnReady)
	discord.AddHandler(BotOnMessageCreate)
	discord.AddHandlerOnce(metrics.OnReady)
	discord.AddHandler(metrics.OnMessageCreate)

	// Connect to discord
	err = discord.Open()
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		panic(err)
	}

	// Open REST API
	wsContainer := restful.NewContainer()

	for _, service := range rest.NewRestServices() {
		wsContainer.Add(service)
	}
	wsContainer.Filter(func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		// Log request and time
		now := time.Now()
		chain.ProcessFilter(req, resp)
		tookTime := time.Now().Sub(now)
		log.WithField("module", "launcher").Info(fmt.Sprintf("received api request: %s %s%s (took %v)",
			req.Request.Method, req.Request.Host, req.Request.URL, tookTime))
	})
	wsContainer.Filter(wsContainer.OPTIONSFilter)

	apiAddress := helpers.ConfigString("api.address")
	if apiAddress == "" {
		apiAddress = "localhost:2021"
	}
	go func() {
		server := &http.Server{Addr: apiAddress, Handler: wsContainer}
		log.Fatal(server.ListenAndServe())
	}()
	log.WithField("module", "launcher").Info("REST API listening on " + apiAddress)

	// Launch machinery
	marchineryLog.Set(log.WithField("module", "machinery"))
	machineryServerConfig := &marchineryConfig.Config{
		Broker:          "redis://" + helpers.ConfigString("redis.address") + "/1",
		DefaultQueue:    "lunchbot_tasks",
		ResultBackend:   "redis://" + helpers.ConfigString("redis.address") + "/1",
		ResultsExpireIn: 3600,
	}
	machineryServer, err := machinery.NewServer(machineryServerConfig)
	if err != nil {
		raven.CaptureErrorAndWait(err, nil)
		panic(err)
	}
	log.WithField("module", "launcher").Info("started machinery server, default queue: lunchbot_tasks")
	machineryServer.RegisterTasks(map[string]interface{}{
		lunch.DeliverQRTaskName: lunch.DeliverQRCode,
	})
	cache.SetMachineryServer(machineryServer)
	worker := machineryServer.NewWorker("lunchbot_worker_1", 1)
	go func() {
		err := worker.Launch()
		if err != nil {
			if !strings.Contains(err.Error(), "Signal received: interrupt") && !strings.Contains(err.Error(), "errorWorker quit gracefully") {
				raven.CaptureErrorAndWait(err, nil)
				panic(err)
			}
		}
	}()
	log.WithField("module", "launcher").Info("started machinery worker lunchbot_worker_1 with concurrency 1")

	// Make a channel that waits for a os signal
	BotRuntimeChannel = make(chan os.Signal, 1)
	signal.Notify(BotRuntimeChannel, os.Interrupt, os.Kill)

	// Wait until the os wants us to shutdown
	<-BotRuntimeChannel

	log.WithField("module", "launcher").Info("lunchbot is stopping")
	log.WithField("module", "launcher").Info("Disconnecting bot discord session...")
	discord.Close()
}
