package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophchat/internal/chatapi"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"google.golang.org/grpc"
)

type userSvc interface {
	Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, email string) ([]byte, error)
	Login(ctx context.Context, email string, verifierCandidate []byte) (*services.TokenPair, *models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, salt, verifier []byte) error
}

type chatSvc interface {
	ListFolders(ctx context.Context, userID string) ([]models.Folder, error)
	CreateFolder(ctx context.Context, userID, name string) (*models.Folder, error)
	RenameFolder(ctx context.Context, userID, folderID, name string) (*models.Folder, error)
	DeleteFolder(ctx context.Context, userID, folderID string) ([]string, error)
	ListConversations(ctx context.Context, userID, folderID string) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, userID, folderID, title string) (*models.Conversation, error)
	UpdateConversation(ctx context.Context, userID, conversationID string, title, folderID *string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, userID, conversationID string) error
	ListMessages(ctx context.Context, userID, conversationID string) ([]models.Message, error)
	AddMessage(ctx context.Context, userID, conversationID string, role models.Role, content models.Content, files []services.FileSpec) (*services.AddedMessage, error)
	GenerateReply(ctx context.Context, userID, conversationID string) (*services.AddedMessage, error)
}

type fileSvc interface {
	MarkUploaded(ctx context.Context, userID, attachmentID string) (*models.Attachment, error)
	ListConversationFiles(ctx context.Context, userID, conversationID string) ([]models.FileEntry, error)
}

// GRPCServer serves chatapi.ChatService over the JSON codec.
type GRPCServer struct {
	address   string
	users     userSvc
	chat      chatSvc
	files     fileSvc
	logger    logging.Logger
	jwtSecret []byte
}

var _ chatapi.ChatServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, us userSvc, cs chatSvc, fs fileSvc, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		chat:      cs,
		files:     fs,
		jwtSecret: []byte(secretKey),
	}
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(chatapi.Codec{}),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
	)
	chatapi.RegisterChatServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
