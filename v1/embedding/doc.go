// Package embedding computes text embeddings through an OpenAI-compatible
// /embeddings endpoint, ready to be inserted into a FloatVector field.
//
// Usage:
//
//	client, err := embedding.NewClient(&embedding.Config{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  embedding.DefaultModel,
//	})
//	if err != nil {
//	    return err
//	}
//	vectors, err := client.CreateEmbeddings(ctx, []string{"first", "second"})
//
// Environment variables read by NewConfig:
//
//	OPENAI_API_KEY          bearer token (required)
//	EMBEDDING_BASE_URL      API root, defaults to OpenAI
//	EMBEDDING_MODEL         defaults to text-embedding-ada-002
//	EMBEDDING_DIMENSIONS    optional output size
//	EMBEDDING_BATCH_SIZE    texts per request, defaults to 64
//	EMBEDDING_HTTP_TIMEOUT  defaults to 30s
package embedding
