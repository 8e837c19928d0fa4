package chatapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gophchat.ChatService"

const (
	MethodPing                   = "Ping"
	MethodRegister               = "Register"
	MethodGetSalt                = "GetSalt"
	MethodLogin                  = "Login"
	MethodRefreshToken           = "RefreshToken"
	MethodLogout                 = "Logout"
	MethodMe                     = "Me"
	MethodRequestPasswordReset   = "RequestPasswordReset"
	MethodResetPassword          = "ResetPassword"
	MethodListFolders            = "ListFolders"
	MethodCreateFolder           = "CreateFolder"
	MethodRenameFolder           = "RenameFolder"
	MethodDeleteFolder           = "DeleteFolder"
	MethodListConversations      = "ListConversations"
	MethodCreateConversation     = "CreateConversation"
	MethodUpdateConversation     = "UpdateConversation"
	MethodDeleteConversation     = "DeleteConversation"
	MethodListMessages           = "ListMessages"
	MethodAddMessage             = "AddMessage"
	MethodMarkAttachmentUploaded = "MarkAttachmentUploaded"
	MethodGenerateReply          = "GenerateReply"
	MethodListConversationFiles  = "ListConversationFiles"
)

// FullMethod returns the gRPC path of a method, e.g. "/gophchat.ChatService/Login".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// PublicMethods can be called without an access token.
var PublicMethods = map[string]struct{}{
	FullMethod(MethodPing):                 {},
	FullMethod(MethodRegister):             {},
	FullMethod(MethodGetSalt):              {},
	FullMethod(MethodLogin):                {},
	FullMethod(MethodRefreshToken):         {},
	FullMethod(MethodRequestPasswordReset): {},
	FullMethod(MethodResetPassword):        {},
}

// ChatServiceServer is implemented by the server handler.
type ChatServiceServer interface {
	Ping(context.Context, *Empty) (*PingResponse, error)

	Register(context.Context, *RegisterRequest) (*UserResponse, error)
	GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Logout(context.Context, *LogoutRequest) (*Empty, error)
	Me(context.Context, *Empty) (*UserResponse, error)
	RequestPasswordReset(context.Context, *RequestPasswordResetRequest) (*Empty, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*Empty, error)

	ListFolders(context.Context, *Empty) (*ListFoldersResponse, error)
	CreateFolder(context.Context, *CreateFolderRequest) (*FolderResponse, error)
	RenameFolder(context.Context, *RenameFolderRequest) (*FolderResponse, error)
	DeleteFolder(context.Context, *DeleteFolderRequest) (*DeleteFolderResponse, error)

	ListConversations(context.Context, *ListConversationsRequest) (*ListConversationsResponse, error)
	CreateConversation(context.Context, *CreateConversationRequest) (*ConversationResponse, error)
	UpdateConversation(context.Context, *UpdateConversationRequest) (*ConversationResponse, error)
	DeleteConversation(context.Context, *DeleteConversationRequest) (*Empty, error)

	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	AddMessage(context.Context, *AddMessageRequest) (*MessageResponse, error)
	MarkAttachmentUploaded(context.Context, *MarkAttachmentUploadedRequest) (*AttachmentResponse, error)
	GenerateReply(context.Context, *GenerateReplyRequest) (*MessageResponse, error)
	ListConversationFiles(context.Context, *ListConversationFilesRequest) (*ListConversationFilesResponse, error)
}

// unary builds a MethodDesc that decodes Req, runs the server interceptor
// chain and dispatches to call.
func unary[Req, Resp any](name string, call func(ChatServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChatServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ChatServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes ChatService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, ChatServiceServer.Ping),
		unary(MethodRegister, ChatServiceServer.Register),
		unary(MethodGetSalt, ChatServiceServer.GetSalt),
		unary(MethodLogin, ChatServiceServer.Login),
		unary(MethodRefreshToken, ChatServiceServer.RefreshToken),
		unary(MethodLogout, ChatServiceServer.Logout),
		unary(MethodMe, ChatServiceServer.Me),
		unary(MethodRequestPasswordReset, ChatServiceServer.RequestPasswordReset),
		unary(MethodResetPassword, ChatServiceServer.ResetPassword),
		unary(MethodListFolders, ChatServiceServer.ListFolders),
		unary(MethodCreateFolder, ChatServiceServer.CreateFolder),
		unary(MethodRenameFolder, ChatServiceServer.RenameFolder),
		unary(MethodDeleteFolder, ChatServiceServer.DeleteFolder),
		unary(MethodListConversations, ChatServiceServer.ListConversations),
		unary(MethodCreateConversation, ChatServiceServer.CreateConversation),
		unary(MethodUpdateConversation, ChatServiceServer.UpdateConversation),
		unary(MethodDeleteConversation, ChatServiceServer.DeleteConversation),
		unary(MethodListMessages, ChatServiceServer.ListMessages),
		unary(MethodAddMessage, ChatServiceServer.AddMessage),
		unary(MethodMarkAttachmentUploaded, ChatServiceServer.MarkAttachmentUploaded),
		unary(MethodGenerateReply, ChatServiceServer.GenerateReply),
		unary(MethodListConversationFiles, ChatServiceServer.ListConversationFiles),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophchat/chat.json",
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
