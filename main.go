package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GridSync/global"
	"GridSync/logger"
	"GridSync/middleware"
	"GridSync/module/comment"
	"GridSync/module/notify"
	"GridSync/module/sheet"
	"GridSync/service/bridge"
	"GridSync/service/collab"
	"GridSync/service/mgo"
	"GridSync/service/storage"
	"GridSync/tools/ids"
	"GridSync/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	conf := global.Default()
	global.LoadEnv(&conf)
	global.Conf = conf

	ids.SetNodeID(1)

	if conf.Redis.Enabled {
		if err := storage.InitRedis(conf.Redis); err != nil {
			logger.Errorf("[boot] redis init failed: %v", err)
			os.Exit(1)
		}
		logger.Infof("[boot] redis connected addr=%s", conf.Redis.Addr)
	}

	// Persistence collaborator; in-memory fallback without mongo.
	var cellStore collab.CellWriter
	var commentStore comment.Store
	if conf.Mongo.Enabled {
		if err := mgo.Init(context.Background(), conf.Mongo); err != nil {
			logger.Errorf("[boot] mongo init failed: %v", err)
			os.Exit(1)
		}
		db := mgo.GetDB()
		cellStore = sheet.NewMongoCells(db)
		commentStore = comment.NewMongoStore(db)
		logger.Infof("[boot] mongo connected db=%s", conf.Mongo.DB)
	} else {
		cellStore = sheet.NewMemCells()
		commentStore = comment.NewMemStore()
		logger.Warnf("[boot] mongo disabled, using in-memory stores")
	}

	// Formula evaluation is external; until the engine endpoint is
	// wired, formulas pass through as their raw text.
	engine := sheet.EngineFunc(func(_ context.Context, formula string, _ string) (string, error) {
		return formula, nil
	})

	srv := collab.NewServer(conf, cellStore, engine)
	defer srv.Close()

	notifyStore := notify.NewStore(conf.WS.NotifyLogLimit)
	notifySvc := notify.NewService(notifyStore, srv.Broadcaster())
	commentSvc := comment.NewService(commentStore, srv.Broadcaster(), notifySvc, conf.WS.MaxCommentLen)
	comment.RegisterWS(srv, commentSvc)

	if conf.Nats.Enabled {
		br, err := bridge.New(bridge.Config{
			Servers: conf.Nats.Servers,
			Name:    "gridsync-" + conf.NodeID,
			NodeID:  conf.NodeID,
		})
		if err != nil {
			logger.Errorf("[boot] nats bridge init failed: %v", err)
			os.Exit(1)
		}
		defer br.Close()
		if err := br.Run(srv.Broadcaster()); err != nil {
			logger.Errorf("[boot] nats bridge subscribe failed: %v", err)
			os.Exit(1)
		}
		srv.Broadcaster().SetBridge(br)
		logger.Infof("[boot] nats bridge up node=%s", conf.NodeID)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", srv.HandleWS)

	api := r.Group("/api")
	api.Use(middleware.Auth(security.DefaultOptions(conf.JWTSecret)))
	notify.RegisterRoutes(api, notifySvc)
	comment.RegisterRoutes(api, commentSvc)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Port),
		Handler: r,
	}

	go func() {
		logger.Infof("[boot] listening on :%d node=%s", conf.Port, conf.NodeID)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("[boot] http server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("[boot] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Errorf("[boot] shutdown: %v", err)
	}
	notifyStore.Clear()
}
