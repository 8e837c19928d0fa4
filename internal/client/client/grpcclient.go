package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/chatapi"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/dmitrijs2005/gophchat/internal/netx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const saltTimeout = 12 * time.Second

var _ Backend = (*GRPCClient)(nil)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      chatapi.ChatServiceClient
	httpClient  *http.Client
	tokens      TokenStore

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) currentTokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// setTokens stores a new token pair and persists the refresh token.
func (s *GRPCClient) setTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	s.accessToken = access
	s.refreshToken = refresh
	s.mu.Unlock()

	if s.tokens == nil {
		return nil
	}
	if refresh == "" {
		return s.tokens.Delete(ctx, RefreshTokenKey)
	}
	return s.tokens.Set(ctx, RefreshTokenKey, []byte(refresh))
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	accessToken, refreshToken := s.currentTokens()
	ctx = withAccessToken(ctx, accessToken)

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated {
		return err
	}
	if st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refreshToken == "" {
		return err
	}

	resp, err := s.client.RefreshToken(ctx, &chatapi.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	if err := s.setTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return err
	}

	ctx = withAccessToken(ctx, resp.AccessToken)
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects to endpointURL. tokens may be nil, in which case
// sessions are not persisted.
func NewGRPCClient(endpointURL string, tokens TokenStore, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, tokens: tokens, httpClient: http.DefaultClient}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = chatapi.NewChatServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &chatapi.Empty{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return fmt.Errorf("%w: ping status %q", common.ErrUnavailable, resp.Status)
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*models.User, error) {
	req := &chatapi.RegisterRequest{Email: email, DisplayName: displayName, Salt: salt, Verifier: verifier}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.User, nil
}

func (s *GRPCClient) GetSalt(ctx context.Context, email string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, saltTimeout)
	defer cancel()

	resp, err := s.client.GetSalt(ctx, &chatapi.GetSaltRequest{Email: email})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Salt, nil
}

func (s *GRPCClient) Login(ctx context.Context, email string, verifier []byte) (*models.User, error) {
	resp, err := s.client.Login(ctx, &chatapi.LoginRequest{Email: email, Verifier: verifier})
	if err != nil {
		return nil, mapError(err)
	}
	if err := s.setTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp.User, nil
}

func (s *GRPCClient) Restore(ctx context.Context) (*models.User, error) {
	_, refreshToken := s.currentTokens()
	if refreshToken == "" && s.tokens != nil {
		b, err := s.tokens.Get(ctx, RefreshTokenKey)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		refreshToken = string(b)
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no saved session", common.ErrUnauthorized)
	}

	resp, err := s.client.RefreshToken(ctx, &chatapi.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		err = mapError(err)
		if errors.Is(err, common.ErrUnauthorized) || errors.Is(err, common.ErrRefreshTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
			_ = s.setTokens(ctx, "", "")
		}
		return nil, err
	}
	if err := s.setTokens(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	me, err := s.client.Me(ctx, &chatapi.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return &me.User, nil
}

// Logout revokes the refresh token on the backend. Local tokens are dropped
// even when the call fails.
func (s *GRPCClient) Logout(ctx context.Context) error {
	_, refreshToken := s.currentTokens()

	var rpcErr error
	if refreshToken != "" {
		if _, err := s.client.Logout(ctx, &chatapi.LogoutRequest{RefreshToken: refreshToken}); err != nil {
			rpcErr = mapError(err)
		}
	}
	if err := s.setTokens(ctx, "", ""); err != nil {
		return errors.Join(rpcErr, fmt.Errorf("clear session: %w", err))
	}
	return rpcErr
}

func (s *GRPCClient) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := s.client.RequestPasswordReset(ctx, &chatapi.RequestPasswordResetRequest{Email: email}); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *GRPCClient) ResetPassword(ctx context.Context, token string, salt, verifier []byte) error {
	req := &chatapi.ResetPasswordRequest{Token: token, Salt: salt, Verifier: verifier}
	if _, err := s.client.ResetPassword(ctx, req); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *GRPCClient) ListFolders(ctx context.Context) ([]models.Folder, error) {
	resp, err := s.client.ListFolders(ctx, &chatapi.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Folders, nil
}

func (s *GRPCClient) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	resp, err := s.client.CreateFolder(ctx, &chatapi.CreateFolderRequest{Name: name})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.Folder, nil
}

func (s *GRPCClient) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	resp, err := s.client.RenameFolder(ctx, &chatapi.RenameFolderRequest{FolderID: id, Name: name})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.Folder, nil
}

func (s *GRPCClient) DeleteFolder(ctx context.Context, id string) ([]string, error) {
	resp, err := s.client.DeleteFolder(ctx, &chatapi.DeleteFolderRequest{FolderID: id})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.DeletedConversationIDs, nil
}

func (s *GRPCClient) ListConversations(ctx context.Context, folderID string) ([]models.Conversation, error) {
	resp, err := s.client.ListConversations(ctx, &chatapi.ListConversationsRequest{FolderID: folderID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Conversations, nil
}

func (s *GRPCClient) CreateConversation(ctx context.Context, folderID, title string) (*models.Conversation, error) {
	resp, err := s.client.CreateConversation(ctx, &chatapi.CreateConversationRequest{FolderID: folderID, Title: title})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.Conversation, nil
}

func (s *GRPCClient) UpdateConversation(ctx context.Context, id string, title, folderID *string) (*models.Conversation, error) {
	req := &chatapi.UpdateConversationRequest{ConversationID: id, Title: title, FolderID: folderID}
	resp, err := s.client.UpdateConversation(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.Conversation, nil
}

func (s *GRPCClient) DeleteConversation(ctx context.Context, id string) error {
	if _, err := s.client.DeleteConversation(ctx, &chatapi.DeleteConversationRequest{ConversationID: id}); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *GRPCClient) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	resp, err := s.client.ListMessages(ctx, &chatapi.ListMessagesRequest{ConversationID: conversationID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Messages, nil
}

func (s *GRPCClient) AddMessage(ctx context.Context, conversationID string, role models.Role, content models.Content, files []FileSpec) (*MessageResult, error) {
	env, err := models.Wrap(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	req := &chatapi.AddMessageRequest{ConversationID: conversationID, Role: role, Content: env, Files: files}
	resp, err := s.client.AddMessage(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return messageResult(resp), nil
}

func (s *GRPCClient) GenerateReply(ctx context.Context, conversationID string) (*MessageResult, error) {
	resp, err := s.client.GenerateReply(ctx, &chatapi.GenerateReplyRequest{ConversationID: conversationID})
	if err != nil {
		return nil, mapError(err)
	}
	return messageResult(resp), nil
}

func (s *GRPCClient) Upload(ctx context.Context, task UploadTask, data []byte) (*models.Attachment, error) {
	if err := netx.UploadToPresignedURL(ctx, s.httpClient, task.UploadURL, task.ContentType, data); err != nil {
		return nil, fmt.Errorf("%w: upload %s: %w", common.ErrBackend, task.FileName, err)
	}

	resp, err := s.client.MarkAttachmentUploaded(ctx, &chatapi.MarkAttachmentUploadedRequest{AttachmentID: task.AttachmentID})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.Attachment, nil
}

func (s *GRPCClient) ConversationFiles(ctx context.Context, conversationID string) ([]models.FileEntry, error) {
	resp, err := s.client.ListConversationFiles(ctx, &chatapi.ListConversationFilesRequest{ConversationID: conversationID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Files, nil
}

func messageResult(resp *chatapi.MessageResponse) *MessageResult {
	return &MessageResult{
		Message:      resp.Message,
		Conversation: resp.Conversation,
		Uploads:      resp.Uploads,
	}
}
