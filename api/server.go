package api

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/gottatouchsomegrass/civic-cast/api/controllers"
	"github.com/gottatouchsomegrass/civic-cast/api/transport"
	"github.com/gottatouchsomegrass/civic-cast/logging"
	"github.com/gottatouchsomegrass/civic-cast/storage"
	"github.com/gottatouchsomegrass/civic-cast/voting"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	electionStorage, userStorage, voteStorage := s.buildStorage()

	engine := voting.NewEngine(electionStorage, userStorage, voteStorage)

	//Register controllers
	votingController := controllers.NewVotingController(engine, s.config.JWTSecret)
	votingController.RegisterRoutes(r)
	electionController := controllers.NewElectionController(electionStorage, s.config.JWTSecret)
	electionController.RegisterRoutes(r)
	userController := controllers.NewUserController(userStorage, electionStorage, voteStorage, s.config.JWTSecret)
	userController.RegisterRoutes(r)
	authController := controllers.NewAuthController(userStorage, s.config.JWTSecret,
		time.Duration(s.config.TokenTTLHours)*time.Hour, s.config.AdminSecret)
	authController.RegisterRoutes(r)
	dashboardController := controllers.NewDashboardController(userStorage, electionStorage, voteStorage, s.config.JWTSecret)
	dashboardController.RegisterRoutes(r)

	//Do not run lambda helper locally
	if os.Getenv("APP_ENV") == "local" {
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

func (s *Server) buildStorage() (storage.ElectionStorage, storage.UserStorage, storage.VoteStorage) {
	if s.config.Driver == "memory" {
		logging.Log.Warn("Using in-memory storage, all data is lost on restart")
		return storage.NewMemoryElectionStorage(), storage.NewMemoryUserStorage(), storage.NewMemoryVoteStorage()
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logging.Log.Errorf("failed to load AWS config: %v", err)
		panic("failed to load AWS config")
	}

	dynamoClient := dynamodb.NewFromConfig(cfg)

	electionStorage := &storage.DynamoElectionStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameElections,
	}
	userStorage := &storage.DynamoUserStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameUsers,
	}
	voteStorage := &storage.DynamoVoteStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameVotes,
	}
	return electionStorage, userStorage, voteStorage
}

// startLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// startLocal starts a normal HTTP server on the configured port
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
