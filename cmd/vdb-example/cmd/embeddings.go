package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vdb-client/v1/embedding"
	"github.com/Aleph-Alpha/vdb-client/v1/logger"
	"github.com/Aleph-Alpha/vdb-client/v1/schema"
	"github.com/Aleph-Alpha/vdb-client/v1/vdb"
)

const (
	booksCollection = "books"
	// native size of embedding.DefaultModel
	defaultBookDimension = 1536

	flushPollInterval = 500 * time.Millisecond
)

var books = []string{
	"A journey through the history of mathematics",
	"Gardening for absolute beginners",
	"The art of distributed systems",
	"Cooking with seasonal vegetables",
	"An introduction to vector databases",
}

var (
	embeddingsQuery string
	embeddingsKeep  bool
)

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Embed a few book descriptions, store them and search by text",
	Long: "Embeds book descriptions through an OpenAI-compatible API (OPENAI_API_KEY),\n" +
		"stores them in a \"books\" collection, then searches and queries it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		embedCfg, err := embedding.NewConfig()
		if err != nil {
			return err
		}
		embedder, err := embedding.NewClient(embedCfg)
		if err != nil {
			return err
		}
		defer embedder.Close()

		s, err := connect()
		if err != nil {
			return err
		}
		defer s.Close()

		dim := int64(defaultBookDimension)
		if embedCfg.Dimensions > 0 {
			dim = int64(embedCfg.Dimensions)
		}
		return runBooks(cmd.Context(), cmd.OutOrStdout(), s.client, embedder, s.log, dim)
	},
}

func init() {
	embeddingsCmd.Flags().StringVar(&embeddingsQuery, "query", "databases for embeddings", "text to search for")
	embeddingsCmd.Flags().BoolVar(&embeddingsKeep, "keep", false, "keep the collection after the run")
}

func booksSchema(dim int64) (*schema.CollectionSchema, error) {
	id, err := schema.NewField("book_id", schema.DataTypeInt64, schema.WithPrimaryKey(), schema.WithAutoID())
	if err != nil {
		return nil, err
	}
	name, err := schema.NewField("book_name", schema.DataTypeVarChar, schema.WithMaxLength(200))
	if err != nil {
		return nil, err
	}
	intro, err := schema.NewField("book_intro", schema.DataTypeFloatVector, schema.WithDimension(dim))
	if err != nil {
		return nil, err
	}
	return schema.NewCollectionSchema(booksCollection, []*schema.FieldSchema{id, name, intro},
		schema.WithCollectionDescription("books with embedded introductions"))
}

func runBooks(ctx context.Context, out io.Writer, client *vdb.Client, embedder *embedding.Client, log *logger.Logger, dim int64) error {
	sc, err := booksSchema(dim)
	if err != nil {
		return err
	}

	exists, err := client.HasCollection(ctx, booksCollection)
	if err != nil {
		return err
	}
	if exists {
		if err := client.DropCollection(ctx, booksCollection); err != nil {
			return err
		}
	}
	if err := client.CreateCollection(ctx, sc, &vdb.CreateCollectionOptions{ShardsNum: 2}); err != nil {
		return err
	}
	if !embeddingsKeep {
		defer func() {
			if err := client.DropCollection(context.WithoutCancel(ctx), booksCollection); err != nil {
				log.Warn("failed to drop example collection", err)
			}
		}()
	}

	vectors, err := embedder.CreateEmbeddings(ctx, books)
	if err != nil {
		return err
	}
	intros, err := schema.NewFloatVectorColumnFromRows(vectors)
	if err != nil {
		return err
	}

	res, err := client.Insert(ctx, booksCollection, "",
		schema.NewFieldData("book_name", schema.DataTypeVarChar, schema.NewScalarColumn(books)),
		schema.NewFieldData("book_intro", schema.DataTypeFloatVector, intros),
	)
	if err != nil {
		return err
	}
	log.Info("inserted books", nil, map[string]interface{}{"count": res.InsertCount})

	flushed, err := client.Flush(ctx, booksCollection)
	if err != nil {
		return err
	}
	if err := client.WaitFlushed(ctx, flushed, flushPollInterval); err != nil {
		return err
	}
	log.Info("flushed books", nil, map[string]interface{}{"segments": flushed.AllSegmentIDs()})
	if err := client.CreateIndex(ctx, booksCollection, "book_intro", "", map[string]string{
		"index_type":  "IVF_FLAT",
		"metric_type": "L2",
		"params":      `{"nlist": 128}`,
	}); err != nil {
		return err
	}
	if err := client.LoadCollection(ctx, booksCollection, 1); err != nil {
		return err
	}

	query, err := embedder.CreateEmbeddings(ctx, []string{embeddingsQuery})
	if err != nil {
		return err
	}
	found, err := client.Search(ctx, &vdb.SearchRequest{
		CollectionName:   booksCollection,
		VectorField:      "book_intro",
		Vectors:          query,
		TopK:             3,
		MetricType:       "L2",
		Params:           map[string]interface{}{"nprobe": 10},
		OutputFields:     []string{"book_name"},
		ConsistencyLevel: vdb.ConsistencyStrong,
	})
	if err != nil {
		return err
	}

	var names []string
	if f, ok := found.Field("book_name"); ok {
		if col, ok := f.Scalars(); ok {
			names, _ = col.Strings()
		}
	}
	fmt.Fprintf(out, "search %q:\n", embeddingsQuery)
	for _, hit := range found.Hits(0) {
		name := ""
		if hit.Offset < len(names) {
			name = names[hit.Offset]
		}
		fmt.Fprintf(out, "  id=%v score=%.4f %s\n", hit.ID, hit.Score, name)
	}

	rows, err := client.Query(ctx, &vdb.QueryRequest{
		CollectionName:   booksCollection,
		Expr:             `book_name like "The%"`,
		OutputFields:     []string{"book_id", "book_name"},
		ConsistencyLevel: vdb.ConsistencyStrong,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "query matched %d rows\n", rows.NumRows())
	return nil
}
