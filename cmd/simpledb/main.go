package main

import (
	"flag"
	"fmt"
	"os"

	"simpledb/internal/config"
	"simpledb/internal/store"
	"simpledb/pkg/logger"
)

func main() {
	dir := flag.String("config", ".", "directory containing "+config.FileName)
	entries := flag.Int("n", 1000, "keys to insert in the load phase")
	flag.Parse()

	conf, err := config.NewConfig(*dir)
	if err != nil {
		logger.Fatal("Failed to load config", "dir", *dir, "error", err)
	}
	if err := logger.InitLogger(conf.LogLevel, conf.LogFile); err != nil {
		logger.Fatal("Failed to init logger", "error", err)
	}
	defer logger.Sync()

	db, err := store.NewFromConfig(conf)
	if err != nil {
		logger.Fatal("Failed to create store", "error", err)
	}
	defer db.Destroy()
	logger.Info("Store ready", "capacity", db.Capacity(), "hash", db.HashFunction())

	if err := run(db, *entries); err != nil {
		logger.Fatal("Demo failed", "error", err)
	}
}

func run(db *store.Store, entries int) error {
	for _, kv := range [][2]string{
		{"name", "Alice"},
		{"age", "30"},
		{"city", "New York"},
		{"country", "USA"},
	} {
		if err := db.Set(kv[0], kv[1]); err != nil {
			return err
		}
	}
	logger.Info("Added entries", "count", db.Count())

	for _, k := range []string{"name", "age", "city", "missing"} {
		v, ok := db.Get(k)
		if !ok {
			v = "(null)"
		}
		fmt.Printf("%s => %s\n", k, v)
	}

	if err := db.Set("age", "31"); err != nil {
		return err
	}
	age, _ := db.Get("age")
	fmt.Printf("age => %s (updated)\n", age)
	fmt.Printf("exists(name) => %t\n", db.Exists("name"))
	fmt.Printf("exists(missing) => %t\n", db.Exists("missing"))
	fmt.Printf("Count: %d entries\n\n", db.Count())

	if err := db.Dump(os.Stdout); err != nil {
		return err
	}
	for i, k := range db.Keys() {
		fmt.Printf("  Key %d: %s\n", i, k)
	}

	if err := db.Delete("city"); err != nil {
		return err
	}
	logger.Info("Deleted key", "key", "city", "count", db.Count())
	printStats(db)

	for i := 0; i < entries; i++ {
		if err := db.Set(fmt.Sprintf("key_%d", i), fmt.Sprintf("value_%d", i)); err != nil {
			return err
		}
	}
	logger.Info("Load finished", "inserted", entries, "count", db.Count())
	printStats(db)

	db.Clear()
	logger.Info("Cleared store", "count", db.Count())
	return nil
}

func printStats(db *store.Store) {
	st := db.Stats()
	fmt.Println("Database Statistics:")
	fmt.Printf("  Total entries: %d\n", st.TotalEntries)
	fmt.Printf("  Used buckets: %d / %d (%.1f%%)\n", st.UsedBuckets, db.Capacity(), st.BucketUsage(db.Capacity()))
	fmt.Printf("  Total collisions: %d\n", st.TotalCollisions)
	fmt.Printf("  Max chain length: %d\n", st.MaxChainLength)
	fmt.Printf("  Avg chain length: %.2f\n", st.AvgChainLength())
	fmt.Printf("  Load factor: %.2f\n\n", st.LoadFactor(db.Capacity()))
}
